package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GlowTrack API",
        "description": "Skin progress tracking: photo capture, analysis and achievements",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Registration and sessions"},
        {"name": "Photos", "description": "Photo capture and lifecycle"},
        {"name": "Analyses", "description": "Skin analysis reports"},
        {"name": "Achievements", "description": "Milestone progress"},
        {"name": "Records", "description": "Daily, medical and product care records"},
        {"name": "Storage", "description": "Storage budget and cleanup"},
        {"name": "Reports", "description": "CSV and PDF exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/photos": {
            "post": {
                "tags": ["Photos"],
                "summary": "Capture a photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "photo", "in": "formData", "type": "file", "required": true, "description": "JPEG or PNG image"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A capture is already running for this user"},
                    "507": {"description": "Storage budget exhausted"}
                }
            },
            "get": {
                "tags": ["Photos"],
                "summary": "List photos",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "description": "Single day (YYYY-MM-DD)"},
                    {"name": "from", "in": "query", "type": "string", "description": "Range start (RFC3339)"},
                    {"name": "to", "in": "query", "type": "string", "description": "Range end (RFC3339)"},
                    {"name": "limit", "in": "query", "type": "integer", "description": "Most recent N photos"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/photos/{id}": {
            "get": {
                "tags": ["Photos"],
                "summary": "Get one photo",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Photos"],
                "summary": "Patch photo fields",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Photos"],
                "summary": "Delete a photo and its artifacts",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/photos/{id}/url": {
            "get": {
                "tags": ["Photos"],
                "summary": "Generate a signed artifact download link",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "quality", "in": "query", "type": "string", "description": "original|compressed|thumbnail"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/photos/{id}/analyses": {
            "post": {
                "tags": ["Analyses"],
                "summary": "Analyze a captured photo",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Analyses"],
                "summary": "List analyses for a photo",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analyses/latest": {
            "get": {
                "tags": ["Analyses"],
                "summary": "The user's most recent analysis",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No analyses yet"}
                }
            }
        },
        "/analyses/{id}": {
            "get": {
                "tags": ["Analyses"],
                "summary": "Get one analysis report",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/achievements": {
            "get": {
                "tags": ["Achievements"],
                "summary": "Full catalog with the user's progress",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/achievements/unlocked": {
            "get": {
                "tags": ["Achievements"],
                "summary": "Achievements the user has unlocked",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records": {
            "post": {
                "tags": ["Records"],
                "summary": "Create a care record",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Records"],
                "summary": "List care records",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string", "description": "daily|medical|product"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/{id}": {
            "get": {
                "tags": ["Records"],
                "summary": "Get one care record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Records"],
                "summary": "Delete one care record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/storage/stats": {
            "get": {
                "tags": ["Storage"],
                "summary": "Storage statistics from the photo store",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/storage/info": {
            "get": {
                "tags": ["Storage"],
                "summary": "Disk-side storage usage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/storage/cleanup": {
            "post": {
                "tags": ["Storage"],
                "summary": "Run the storage cleanup immediately",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/photo-history": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export the photo log",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv|pdf"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/reports/progress": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export storage totals and achievement state",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv|pdf"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
