// Package config loads, normalizes, and validates redub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a dotenv file, and honours environment
// fallbacks such as GEMINI_API_KEY and OPENAI_API_KEY. The Config type
// centralizes every knob the pipeline and CLI need so engines, credentials and
// output formats are resolved in one pass.
//
// Validate is the explicit confirm step: call it (or ValidateAnalyze /
// ValidateFinish for phase-specific credential checks) before handing the
// config to pipeline constructors.
package config
