package router

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

func registerSwaggerRoutes(r *mux.Router) {
	r.HandleFunc("/swagger", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/swagger/", http.StatusMovedPermanently)
	}).Methods(http.MethodGet)

	r.HandleFunc("/swagger/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	}).Methods(http.MethodGet)

	r.HandleFunc("/swagger/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	}).Methods(http.MethodGet)
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Settlement Hub API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {"title": "Settlement Hub API", "version": "1.0.0"},
  "components": {
    "securitySchemes": {
      "BasicAuth": {"type": "http", "scheme": "basic"},
      "BankToken": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
      "BankSecret": {"type": "apiKey", "in": "header", "name": "Bank-Secret"}
    },
    "schemas": {
      "CreateTransactionRequest": {
        "type": "object",
        "required": ["accountNumber", "bankName", "toAccountNumber", "toBankName", "amount", "currency"],
        "properties": {
          "accountNumber": {"type": "string"},
          "bankName": {"type": "string"},
          "toAccountNumber": {"type": "string"},
          "toBankName": {"type": "string"},
          "accountHolderName": {"type": "string"},
          "amount": {"type": "string", "example": "100.00", "description": "At most two decimal places"},
          "currency": {"type": "string", "example": "USD"},
          "message": {"type": "string"}
        }
      },
      "FraudReviewRequest": {
        "type": "object",
        "required": ["caseId", "decision", "reviewerId"],
        "properties": {
          "caseId": {"type": "string"},
          "decision": {"type": "string", "enum": ["REVIEWED", "DISMISSED"]},
          "reviewerId": {"type": "string"}
        }
      },
      "BankTokenRequest": {
        "type": "object",
        "required": ["swift"],
        "properties": {"swift": {"type": "string"}}
      }
    }
  },
  "paths": {
    "/transactions/create-transaction": {
      "post": {
        "summary": "Settle a transfer between two accounts",
        "security": [{"BasicAuth": []}, {"BankToken": []}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/CreateTransactionRequest"}}}},
        "responses": {
          "200": {"description": "Transaction completed"},
          "400": {"description": "Validation, insufficient funds, conversion or settlement failure"},
          "403": {"description": "Flagged for fraud review"},
          "404": {"description": "Account not found"},
          "429": {"description": "Rate limit exceeded"}
        }
      }
    },
    "/transactions/{id}": {
      "get": {
        "summary": "Get transaction",
        "security": [{"BasicAuth": []}, {"BankToken": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
      }
    },
    "/fraud/pending": {
      "get": {"summary": "List pending fraud cases", "security": [{"BasicAuth": []}], "responses": {"200": {"description": "OK"}}}
    },
    "/fraud/status/{status}": {
      "get": {
        "summary": "List fraud cases by status",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "status", "in": "path", "required": true, "schema": {"type": "string", "enum": ["PENDING", "REVIEWED", "DISMISSED"]}}],
        "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid status"}}
      }
    },
    "/fraud/all": {
      "get": {"summary": "List all fraud cases", "security": [{"BasicAuth": []}], "responses": {"200": {"description": "OK"}}}
    },
    "/fraud/review": {
      "post": {
        "summary": "Review a fraud case",
        "security": [{"BasicAuth": []}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/FraudReviewRequest"}}}},
        "responses": {"200": {"description": "Reviewed"}, "400": {"description": "Invalid decision"}, "404": {"description": "Case not found"}}
      }
    },
    "/currency/rate": {
      "get": {
        "summary": "Get exchange rate",
        "parameters": [
          {"name": "from", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "to", "in": "query", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "OK"}, "400": {"description": "Rate unavailable"}}
      }
    },
    "/currency/convert": {
      "get": {
        "summary": "Convert an amount",
        "parameters": [
          {"name": "amount", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "from", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "to", "in": "query", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "OK"}, "400": {"description": "Conversion unavailable"}}
      }
    },
    "/currency/rates": {
      "get": {"summary": "Current rate table", "responses": {"200": {"description": "OK"}}}
    },
    "/currency/refresh": {
      "post": {"summary": "Refresh exchange rates", "security": [{"BasicAuth": []}], "responses": {"200": {"description": "OK"}}}
    },
    "/banks": {
      "get": {"summary": "List banks", "responses": {"200": {"description": "OK"}}}
    },
    "/auth/bank-token": {
      "post": {
        "summary": "Issue an inter-bank token",
        "security": [{"BankSecret": []}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/BankTokenRequest"}}}},
        "responses": {"200": {"description": "Token issued"}, "403": {"description": "Invalid bank secret"}}
      }
    },
    "/admin/rate-limit/status": {
      "get": {"summary": "Rate limiter status", "security": [{"BasicAuth": []}], "responses": {"200": {"description": "OK"}}}
    },
    "/admin/rate-limit/clear": {
      "post": {"summary": "Clear rate limit counters", "security": [{"BasicAuth": []}], "responses": {"200": {"description": "OK"}}}
    },
    "/health": {
      "get": {"summary": "Liveness", "responses": {"200": {"description": "OK"}}}
    }
  }
}`
