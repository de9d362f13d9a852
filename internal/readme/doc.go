// Package readme assembles a README.md from a codebase analysis.
//
// Sections render from templates in a fixed order: title, badges,
// description, features, installation, usage, architecture, api,
// development, testing, deployment, contributing and license. The tech
// stack is detected from the language breakdown and well-known dependency
// names. With a completion client the description and features sections are
// drafted by the model, falling back to the templates when it fails.
package readme
