// internal/workers/auth/auth-login/validation.go
package authlogin

const inputSchema = `{
	"type": "object",
	"required": ["email", "password"],
	"properties": {
		"email":    {"type": "string", "format": "email", "maxLength": 255},
		"password": {"type": "string", "minLength": 1, "maxLength": 128}
	}
}`
