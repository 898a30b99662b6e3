package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Ledger API",
        "description": "Course seat ledger and finalization engine",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token issuance"},
        {"name": "Courses", "description": "Course registry and counters"},
        {"name": "Evaluators", "description": "Per-course evaluator assignment"},
        {"name": "Enrollments", "description": "Seat purchases and reclaims"},
        {"name": "Evaluations", "description": "Per-student marks"},
        {"name": "Finalization", "description": "Terminal seat reconciliation"},
        {"name": "Payments", "description": "Collected fee withdrawal"},
        {"name": "Exports", "description": "Roster and certificate downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/courses": {
            "post": {
                "tags": ["Courses"],
                "summary": "Batch create or top up courses",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCoursesRequest"}}],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Parameter lengths do not match"}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Course detail with counters",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/courses/{id}/metadata": {
            "put": {
                "tags": ["Courses"],
                "summary": "Overwrite a course's metadata reference",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/courses/{id}/evaluators": {
            "post": {
                "tags": ["Evaluators"],
                "summary": "Assign an evaluator",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Assigned"},
                    "409": {"description": "Already assigned or capacity reached"}
                }
            },
            "get": {
                "tags": ["Evaluators"],
                "summary": "List a course's evaluators",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/courses/{id}/evaluators/{evaluatorId}": {
            "delete": {
                "tags": ["Evaluators"],
                "summary": "Remove an evaluator",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "evaluatorId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "409": {"description": "Evaluator not assigned"}
                }
            }
        },
        "/settings/max-evaluators": {
            "put": {
                "tags": ["Evaluators"],
                "summary": "Update the process-wide evaluator capacity",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid capacity"}
                }
            }
        },
        "/courses/{id}/purchase": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Purchase one seat",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Purchased"},
                    "402": {"description": "Payment below fee"},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/courses/{id}/transfer": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Transfer one seat unit from creator to student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Transferred"},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/courses/reclaim": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Batch reclaim seats",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "Reclaimed"},
                    "400": {"description": "Parameter lengths do not match"},
                    "409": {"description": "Seat counter underflow"}
                }
            }
        },
        "/courses/{id}/students": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrolled students in purchase order",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/students/{id}/courses": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List a student's courses in purchase order",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/courses/{id}/evaluations": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Record a mark",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Recorded"},
                    "400": {"description": "Illegal mark"},
                    "403": {"description": "Caller not assigned to course"},
                    "412": {"description": "Student not registered"}
                }
            },
            "get": {
                "tags": ["Evaluations"],
                "summary": "List evaluation entries in recorded order",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/courses/{id}/finalize": {
            "post": {
                "tags": ["Finalization"],
                "summary": "Finalize a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Finalized"},
                    "404": {"description": "Course not found"},
                    "409": {"description": "Already finalized or counter underflow"}
                }
            }
        },
        "/payments/withdraw": {
            "post": {
                "tags": ["Payments"],
                "summary": "Sweep collected payments",
                "responses": {
                    "200": {"description": "Swept"},
                    "502": {"description": "Withdrawal failed"}
                }
            }
        },
        "/courses/{id}/roster.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the course roster as CSV",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/courses/{id}/certificate.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a completion certificate as PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "student", "in": "query", "required": true, "type": "string"}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF file"},
                    "404": {"description": "No passing evaluation for student"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateCoursesRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "integer"}},
                "seat_counts": {"type": "array", "items": {"type": "integer"}},
                "metadata_refs": {"type": "array", "items": {"type": "string"}},
                "fees": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"}
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
