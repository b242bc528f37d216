package config

// SampleConfig returns a fully commented configuration file with every
// option and its default value.
func SampleConfig() string {
	return `# Notewise configuration file
# Search order: ./.notewise.yaml, ~/.config/notewise/config.yaml, /etc/notewise/config.yaml
# Environment variables with the NOTEWISE_ prefix override file settings.

version: "1.0"

# Note vault settings
vault:
  # Path to the vault root. All notes are addressed relative to it.
  path: "."
  # Folders to skip during sync, relative to the vault root.
  ignored_folders: []
  # - "templates"
  # - "archive"

# Cloudflare AI Gateway and Vectorize settings
cloudflare:
  # Account and gateway identifiers from the Cloudflare dashboard.
  account_id: ""
  gateway_id: ""
  # Vectorize index that holds the note embeddings.
  index_name: "notewise-notes"
  # API tokens. Prefer NOTEWISE_CF_API_KEY / NOTEWISE_CF_VECTORIZE_API_KEY
  # or the secret store over writing tokens into this file.
  api_key: ""
  vectorize_api_key: ""
  # Models served through the gateway.
  model: "@cf/meta/llama-3.3-70b-instruct-fp8-fast"
  embedding_model: "@cf/baai/bge-base-en-v1.5"
  # Completion limits.
  max_tokens: 256
  temperature: 0.6
  # Retry budget per request. Set the HTTP timeout with
  # NOTEWISE_CF_TIMEOUT (e.g. "30s").
  max_attempts: 3

# Incremental sync settings
sync:
  enabled: true
  # Periodic full syncs in watch mode default to every 30 minutes.
  # Override with NOTEWISE_SYNC_AUTO_INTERVAL (e.g. "10m", "0" to disable).
  # Notes embedded concurrently per batch.
  batch_size: 5
  # Notes longer than this many characters are split at sentence
  # boundaries before embedding.
  max_chunk_size: 8192
  # Directory for per-note sync state records.
  state_dir: "~/.local/share/notewise/state"

# Context retrieval settings
retrieval:
  # Number of matches requested from the vector index.
  top_k: 3
  # Matches scoring below this similarity are discarded.
  min_similarity_score: 0.7

# Secret store for API credentials
secrets:
  # Provider: env, file, or vault.
  provider: "env"
  # For the file provider: path to the secrets file and optional
  # encryption key file (32 bytes, hex or raw).
  path: ""
  keyFile: ""
  # For the vault provider.
  vault:
    address: ""
    token: ""
    pathPrefix: "secret"

# Output settings
output:
  # Default format: text, json, or markdown.
  default_format: "text"
  # Color mode: auto, always, or never.
  color_mode: "auto"
  verbose: false

# Logging settings
logging:
  # Level: debug, info, warn, or error.
  level: "info"
`
}

// MinimalSampleConfig returns a compact configuration with only the
// settings most installations change.
func MinimalSampleConfig() string {
	return `# Notewise configuration file (minimal)

vault:
  path: "~/notes"

cloudflare:
  account_id: ""
  gateway_id: ""
  index_name: "notewise-notes"

sync:
  enabled: true

logging:
  level: "info"
`
}
