package hub

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/forgewave/bombard/internal/scenario"
)

// Accepted Content-Type values per admission form part, mirroring
// original_source's validate_content_type. config/scenarios/environment
// accept either JSON or YAML since the loaders sniff format from the file
// extension rather than requiring one or the other.
var (
	selfDescribingContentTypes = []string{
		"application/json",
		"application/yaml",
		"application/x-yaml",
		"text/yaml",
		"text/x-yaml",
	}
	dataContentTypes = []string{"text/csv"}
)

// Bombard handles POST /bombardier/v1/bombard: a multipart form with parts
// "config" (mandatory), "scenarios" (mandatory), "environment" (optional)
// and "data" (optional).
func (h *Hub) Bombard(c *gin.Context) {
	dir, err := os.MkdirTemp("", "bombard-admission")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}
	defer os.RemoveAll(dir)

	configPath, err := spoolPart(c, dir, "config", true, selfDescribingContentTypes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scenariosPath, err := spoolPart(c, dir, "scenarios", true, selfDescribingContentTypes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	environmentPath, err := spoolPart(c, dir, "environment", false, selfDescribingContentTypes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dataPath, err := spoolPart(c, dir, "data", false, dataContentTypes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := scenario.LoadExecConfig(configPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requests, err := scenario.LoadScenarios(scenariosPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	envMap, err := scenario.LoadEnvironment(environmentPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dataContent []byte
	if dataPath != "" {
		dataContent, err = os.ReadFile(dataPath)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read data file"})
			return
		}
	}

	jobID, err := h.Admit(AdmissionRequest{
		Config:      cfg,
		Requests:    requests,
		EnvMap:      envMap,
		DataContent: dataContent,
	})
	if err != nil {
		if errors.Is(err, ErrNoNodesRegistered) || errors.Is(err, ErrNodesBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"job_id": jobID})
}

// Nodes handles GET /bombardier/v1/nodes: the registry's available/
// bombarding counts.
func (h *Hub) Nodes(c *gin.Context) {
	available, bombarding := h.NodeCounts()
	c.JSON(http.StatusOK, gin.H{"available": available, "bombarding": bombarding})
}

// Stop handles POST /bombardier/v1/stop. Per the hub's cancellation model
// there is no guaranteed abort; this records a best-effort stop request
// against the current job and always returns 200.
func (h *Hub) Stop(c *gin.Context) {
	jobID, ok := h.RequestStop()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"stopped": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": true, "job_id": jobID})
}

// spoolPart copies a named multipart file part to dir, preserving its
// original extension so the self-describing JSON/YAML loaders can sniff
// format. Returns "" with no error when the part is absent and optional.
// allowedContentTypes rejects the part with a 400-worthy error when its
// declared Content-Type (params such as charset stripped) isn't in the set.
func spoolPart(c *gin.Context, dir, field string, required bool, allowedContentTypes []string) (string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		if required {
			return "", fmt.Errorf("missing required form part %q", field)
		}
		return "", nil
	}

	if err := validateContentType(fileHeader, allowedContentTypes); err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open form part %q: %w", field, err)
	}
	defer src.Close()

	ext := filepath.Ext(fileHeader.Filename)
	destPath := filepath.Join(dir, field+ext)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to stage form part %q: %w", field, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return "", fmt.Errorf("failed to stage form part %q: %w", field, err)
	}
	return destPath, nil
}

// validateContentType rejects a form part whose declared Content-Type isn't
// one of allowed, mirroring original_source's validate_content_type.
func validateContentType(fileHeader *multipart.FileHeader, allowed []string) error {
	declared := fileHeader.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType = strings.TrimSpace(declared)
	}
	mediaType = strings.ToLower(mediaType)

	for _, ok := range allowed {
		if mediaType == ok {
			return nil
		}
	}
	return fmt.Errorf("%s param should be of type one of %v, got %q", fileHeader.Filename, allowed, declared)
}
