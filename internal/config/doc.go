// Package config loads process configuration from a .env file, an optional
// YAML file and environment variables.
//
// Example YAML file (selected with DOCGEN_CONFIG):
//
//	db_path: ~/.docgen/docgen.db
//	log_level: debug
//	chunk:
//	  max_tokens: 50000
//	  overlap_tokens: 200
//	llm:
//	  provider: local
//	  ollama_model: qwen2.5-coder:7b
//
// Environment variables override the file.
package config
