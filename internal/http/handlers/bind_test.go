package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"userhub/internal/http/handlers"
)

type bindTarget struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,min=2"`
	Age   int    `json:"age" binding:"omitempty,min=1"`
}

func newBindRouter() *gin.Engine {
	r := gin.New()

	r.POST("/bind", func(c *gin.Context) {
		var req bindTarget

		if !handlers.BindJSON(c, &req) {
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

type bindErrBody struct {
	Error struct {
		Code    string `json:"code"`
		Details struct {
			JSON   string `json:"json"`
			Fields []struct {
				Field string `json:"field"`
				Rule  string `json:"rule"`
				Param string `json:"param"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func TestBindJSONReportsJSONFieldNames(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/bind", `{"email":"nope","name":"x"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var body bindErrBody

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	if body.Error.Code != "invalid_request" {
		t.Fatalf("code = %q", body.Error.Code)
	}

	got := map[string]string{}

	for _, f := range body.Error.Details.Fields {
		got[f.Field] = f.Rule
	}

	// json tag names, not Go field names
	if got["email"] != "email" || got["name"] != "min" {
		t.Fatalf("fields = %v", got)
	}
}

func TestBindJSONSyntaxError(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/bind", `{"email":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var body bindErrBody

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	if body.Error.Details.JSON == "" {
		t.Fatalf("expected a json error marker, body = %s", w.Body.String())
	}
}

func TestBindJSONTypeMismatch(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/bind", `{"email":"a@b.com","name":"Ann","age":"twelve"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var body bindErrBody

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	if body.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("details = %s", w.Body.String())
	}
}

func TestBindJSONValid(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/bind", `{"email":"a@b.com","name":"Ann"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
