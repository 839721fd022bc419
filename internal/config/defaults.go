package config

// DefaultConfigYAML contains the default configuration YAML content.
// Written by `agora init`; values not specified fall back to loader defaults.
const DefaultConfigYAML = `# Agora configuration
#
# Values not specified here use sensible defaults.

log:
  level: info
  # auto | text | json
  format: auto

# Local Ollama runtime. All four roles can share one model; smaller models
# work fine for filtering and prompt generation.
ollama:
  host: http://localhost:11434
  timeout: 60s
  models:
    filter: llama3.2
    prompt: llama3.2
    debate: llama3.2
    moderator: llama3.2

debate:
  max_rounds: 6
  # How many recent turns each debater sees when arguing.
  context_turns: 3
  # How many recent turns feed the closing summary.
  summary_turns: 5
  moderator:
    # cadence | content | both | off
    trigger: both
    # Intervention check every N rounds (cadence/both modes).
    cadence: 3
    context_turns: 3

state:
  # json | sqlite
  backend: json
  dir: .agora/debates
  dsn: .agora/agora.db

server:
  host: 127.0.0.1
  port: 8080
  cors_origins:
    - http://localhost:5173
  request_timeout: 5m
  shutdown_timeout: 10s
`
