package bootstrap

// JSON schema for toggle definition files, matching the document shape the
// proxy endpoint returns.
const toggleSetSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["toggles"],
  "properties": {
    "toggles": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "enabled"],
        "properties": {
          "name": { "type": "string", "minLength": 1 },
          "enabled": { "type": "boolean" },
          "impressionData": { "type": "boolean" },
          "variant": {
            "type": "object",
            "required": ["name", "enabled"],
            "properties": {
              "name": { "type": "string" },
              "enabled": { "type": "boolean" },
              "payload": {
                "type": "object",
                "required": ["type", "value"],
                "properties": {
                  "type": { "type": "string" },
                  "value": { "type": "string" }
                }
              }
            }
          }
        }
      }
    }
  }
}`
