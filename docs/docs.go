// Package docs registers the OpenAPI document served at /swagger/*any.
//
// The template mirrors the godoc annotations in internal/http/handlers and
// is kept by hand alongside them.
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
        "/about": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Platform"],
                "summary": "Describe the service",
                "operationId": "about",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.About"}}
                }
            }
        },
        "/ping/{token}": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["Platform"],
                "summary": "Availability probe",
                "operationId": "ping",
                "parameters": [
                    {"type": "string", "description": "Any value", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "pong/{token}", "schema": {"type": "string"}}
                }
            }
        },
        "/auth/{authToken}/invitations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "List invitations",
                "description": "Returns every invitation the authenticated user sent or received. Expired invitations are omitted.",
                "operationId": "listInvitations",
                "parameters": [
                    {"type": "string", "description": "Auth token", "name": "authToken", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Invitation"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Send an invitation",
                "description": "Invites another player to a game. While a recent refusal is cooling down the response is 200 with code TooManyInvitations and nothing is stored.",
                "operationId": "createInvitation",
                "parameters": [
                    {"type": "string", "description": "Auth token", "name": "authToken", "in": "path", "required": true},
                    {"description": "Invitation", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateInvitationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.TooManyInvitationsResponse"}},
                    "400": {"description": "Invalid content", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "423": {"description": "Recipient blocked the sender", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/{authToken}/invitations/{invitationId}": {
            "delete": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Delete an invitation",
                "description": "The sender may cancel; the recipient may accept or refuse. A refusal blocks the same invitation for a while.",
                "operationId": "deleteInvitation",
                "parameters": [
                    {"type": "string", "description": "Auth token", "name": "authToken", "in": "path", "required": true},
                    {"type": "string", "description": "Invitation ID", "name": "invitationId", "in": "path", "required": true},
                    {"description": "Reason", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.DeleteInvitationRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Missing or invalid reason", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Not a participant", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Invitation not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/{authToken}/invitations/{invitationId}/delete": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Delete an invitation (POST form)",
                "operationId": "deleteInvitationPost",
                "parameters": [
                    {"type": "string", "description": "Auth token", "name": "authToken", "in": "path", "required": true},
                    {"type": "string", "description": "Invitation ID", "name": "invitationId", "in": "path", "required": true},
                    {"description": "Reason", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.DeleteInvitationRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Missing or invalid reason", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Not a participant", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Invitation not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Invitation": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "6a9e4c3b0d1f2e8a7b5c4d3e2f1a0b9c"},
                "from": {"type": "string", "example": "alice"},
                "to": {"type": "string", "example": "bob"},
                "gameId": {"type": "string", "example": "0123456789abcdef012345"},
                "type": {"type": "string", "example": "triominos/v1"}
            }
        },
        "handlers.About": {
            "type": "object",
            "properties": {
                "hostname": {"type": "string"},
                "type": {"type": "string", "example": "invitations/v1"},
                "version": {"type": "string"},
                "description": {"type": "string"},
                "startDate": {"type": "string", "format": "date-time"}
            }
        },
        "handlers.CreateInvitationRequest": {
            "type": "object",
            "properties": {
                "to": {"type": "string", "example": "bob"},
                "gameId": {"type": "string", "example": "0123456789abcdef012345"},
                "type": {"type": "string", "example": "triominos/v1"}
            }
        },
        "handlers.DeleteInvitationRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string", "enum": ["cancel", "accept", "refuse"], "example": "refuse"}
            }
        },
        "handlers.TooManyInvitationsResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "gameId": {"type": "string"},
                "type": {"type": "string"},
                "code": {"type": "string", "example": "TooManyInvitations"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "NotFoundError"},
                "message": {"type": "string", "example": "not found"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/invitations/v1",
	Schemes:          []string{},
	Title:            "Invitations API",
	Description:      "Game invitations between players: send, list, accept, refuse and cancel.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
