// Package docs registra la definición OpenAPI servida en /swagger.
// Regenerar con: swag init -g cmd/api/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Crea una cuenta",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/accounts.credentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/accounts.sessionResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "string"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Inicia sesión",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/accounts.credentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accounts.sessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Cierra la sesión actual",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/pet": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pet"],
                "summary": "Estado actual de la mascota",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/petsync.petResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/pet/actions/{action}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["pet"],
                "summary": "Aplica una acción (feed, play, sleep)",
                "parameters": [
                    {"type": "string", "name": "action", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/petsync.actionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/pet/state": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pet"],
                "summary": "Fuerza un estado (menú de desarrollo)",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/petsync.forceStateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/petsync.actionResponse"}}
                }
            }
        },
        "/pet/ws": {
            "get": {
                "tags": ["pet"],
                "summary": "Stream de snapshots y cues de audio por websocket",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        },
        "/me/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Preferencias del usuario",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/preferences.settingsResponse"}}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Actualiza preferencias",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/preferences.patchSettingsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/preferences.settingsResponse"}}}
            }
        },
        "/me/push-token": {
            "put": {
                "consumes": ["application/json"],
                "tags": ["settings"],
                "summary": "Registra el token push del dispositivo",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/preferences.pushTokenRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/preferences.settingsResponse"}}}
            }
        },
        "/characters": {
            "get": {
                "produces": ["application/json"],
                "tags": ["characters"],
                "summary": "Personajes disponibles",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/characters.characterResponse"}}}}
            }
        },
        "/characters/selected": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["characters"],
                "summary": "Selecciona personaje",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/characters.selectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/characters.characterResponse"}},
                    "403": {"description": "Forbidden", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "accounts.credentialsRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "accounts.sessionResponse": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "email": {"type": "string"},
                "access_token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "petsync.petResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "state": {"type": "string", "enum": ["happy", "hungry", "bored", "tired"]},
                "last_interaction": {"type": "integer"},
                "user_email": {"type": "string"}
            }
        },
        "petsync.actionResponse": {
            "type": "object",
            "properties": {
                "pet": {"$ref": "#/definitions/petsync.petResponse"},
                "previous": {"type": "string"},
                "changed": {"type": "boolean"}
            }
        },
        "petsync.forceStateRequest": {
            "type": "object",
            "properties": {"state": {"type": "string"}}
        },
        "preferences.settingsResponse": {
            "type": "object",
            "properties": {
                "music_enabled": {"type": "boolean"},
                "sounds_enabled": {"type": "boolean"},
                "notifications_enabled": {"type": "boolean"},
                "language": {"type": "string"}
            }
        },
        "preferences.patchSettingsRequest": {
            "type": "object",
            "properties": {
                "music_enabled": {"type": "boolean"},
                "sounds_enabled": {"type": "boolean"},
                "notifications_enabled": {"type": "boolean"},
                "language": {"type": "string"}
            }
        },
        "preferences.pushTokenRequest": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "status": {"type": "string"}}
        },
        "characters.selectRequest": {
            "type": "object",
            "properties": {"id": {"type": "string"}}
        },
        "characters.characterResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "image_url": {"type": "string"},
                "locked": {"type": "boolean"},
                "selected": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Rosie API",
	Description:      "Mascota virtual: estado de ánimo, acciones, recordatorios y preferencias.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
