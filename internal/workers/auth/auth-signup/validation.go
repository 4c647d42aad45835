// internal/workers/auth/auth-signup/validation.go
package authsignup

const inputSchema = `{
	"type": "object",
	"required": ["name", "email", "password"],
	"properties": {
		"name":     {"type": "string", "minLength": 1, "maxLength": 100},
		"email":    {"type": "string", "format": "email", "maxLength": 255},
		"password": {"type": "string", "minLength": 6, "maxLength": 128}
	}
}`
