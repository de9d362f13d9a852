// Package analyzer builds a structural analysis of a codebase: language
// mix, architectural components, declared dependencies, design patterns and
// the HTTP API surface.
//
// With a completion client the architecture, dependency, pattern and API
// passes run concurrently against the model. Shallow analysis runs the
// architecture and dependency passes only, medium adds patterns and deep
// adds the API pass. Sections the model leaves empty, or every section when
// no client is configured, come from static heuristics:
//
//   - components: one per top-level directory (two levels below src/,
//     internal/, pkg/ and similar), linked by cross-component imports
//   - dependencies: go.mod, package.json, requirements*.txt, pyproject.toml
//     and Cargo.toml
//   - patterns: DDD naming conventions on Go declarations and classes
//   - api: Go route registrations plus Flask/FastAPI decorators and
//     Express-style router calls
package analyzer
