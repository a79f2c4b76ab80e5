package jobs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestContext builds a request context with a :jobId path parameter. The
// handler under test carries no DB connection, so any lookup that reaches the
// database panics: the tests below pass only when malformed ids are rejected
// up front.
func newTestContext(jobID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "jobId", Value: jobID}}
	return c, w
}

func TestHandlersRejectMalformedJobIDs(t *testing.T) {
	h := &Handler{UploadRoot: t.TempDir()}

	badIDs := []string{
		"..",
		"../../etc",
		"not-a-uuid",
		"",
		"d79c7b9e-zzzz-4f2e-9a31-000000000000",
	}

	handlers := map[string]gin.HandlerFunc{
		"GetJob":   h.GetJob,
		"Status":   h.Status,
		"Generate": h.Generate,
		"Media":    h.ServeMedia,
		"Download": h.Download,
		"Events":   h.Events,
	}

	for name, handler := range handlers {
		for _, id := range badIDs {
			c, w := newTestContext(id)
			handler(c)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s(%q) = %d, want %d", name, id, w.Code, http.StatusBadRequest)
			}
		}
	}
}

func TestDownloadDoesNotEscapeUploadRoot(t *testing.T) {
	h := &Handler{UploadRoot: t.TempDir()}

	c, w := newTestContext("../outside")
	c.Params = append(c.Params, gin.Param{Key: "filename", Value: "../../secret.txt"})
	h.Download(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("traversal job id must be rejected, got %d", w.Code)
	}
}
