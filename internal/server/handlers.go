package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"appforge/internal/api"
	"appforge/internal/logging"
	"appforge/internal/queue"
)

// convertBodyLimit bounds the JSON body of /api/convert.
const convertBodyLimit = 2 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{OK: true, Time: time.Now().UnixMilli()})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}

	maxBytes := s.cfg.MaxUploadBytes()
	// Slack over the file ceiling covers multipart framing; the exact file
	// size check happens while streaming the part to disk.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, api.CodeNoFile)
		return
	}

	part, err := nextFilePart(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, api.CodeFileTooLarge)
			return
		}
		s.writeError(w, http.StatusBadRequest, api.CodeNoFile)
		return
	}
	defer part.Close()

	originalName := part.FileName()
	if !isArchiveUpload(originalName, part.Header.Get("Content-Type")) {
		s.writeError(w, http.StatusUnsupportedMediaType, api.CodeUnsupportedType)
		return
	}

	// Storage path comes from a generated id, never from the client name.
	fileID := uuid.NewString()
	storagePath := filepath.Join(s.cfg.UploadDir(), fileID+".zip")

	size, err := streamToFile(part, storagePath, maxBytes)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, api.CodeFileTooLarge)
			return
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, api.CodeFileTooLarge)
			return
		}
		s.logger.Error("upload write failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}

	file, err := s.store.RegisterFile(r.Context(), storagePath, originalName, size)
	if err != nil {
		_ = os.Remove(storagePath)
		s.logger.Error("file registration failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}

	s.logger.Info("upload accepted",
		logging.String("file_id", file.ID),
		logging.String("filename", file.OriginalName),
		logging.Int64("size_bytes", file.SizeBytes),
	)
	s.writeJSON(w, http.StatusOK, api.UploadResponse{
		OK:       true,
		FileID:   file.ID,
		Filename: file.OriginalName,
		Size:     file.SizeBytes,
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}

	var req api.ConvertRequest
	body := http.MaxBytesReader(w, r.Body, convertBodyLimit)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, api.CodeNoFileID)
		return
	}

	fileID := strings.TrimSpace(req.FileID)
	if fileID == "" {
		s.writeError(w, http.StatusBadRequest, api.CodeNoFileID)
		return
	}

	target, ok := queue.ParseTarget(req.Target)
	if !ok {
		s.writeError(w, http.StatusBadRequest, api.CodeBadTarget)
		return
	}

	file, err := s.store.FileByID(r.Context(), fileID)
	if err != nil {
		s.logger.Error("file lookup failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}
	if file == nil {
		s.writeError(w, http.StatusNotFound, api.CodeFileNotFound)
		return
	}

	job, err := s.store.NewJob(r.Context(), file.ID, target)
	if err != nil {
		s.logger.Error("job creation failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}
	if s.dispatcher != nil {
		s.dispatcher.Kick()
	}

	s.logger.Info("job enqueued",
		logging.String("job_id", job.ID),
		logging.String("file_id", file.ID),
		logging.String("target", string(target)),
	)
	s.writeJSON(w, http.StatusOK, api.ConvertResponse{OK: true, JobID: job.ID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if jobID == "" || strings.Contains(jobID, "/") {
		s.writeError(w, http.StatusNotFound, api.CodeJobNotFound)
		return
	}

	snapshot, err := s.jobs.Describe(r.Context(), jobID, s.downloadBase(r))
	if err != nil {
		s.logger.Error("job lookup failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}
	if snapshot == nil {
		s.writeError(w, http.StatusNotFound, api.CodeJobNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}

	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := queue.ParseStatus(value)
		if !ok {
			continue
		}
		statuses = append(statuses, status)
	}

	jobs, err := s.jobs.List(r.Context(), s.downloadBase(r), statuses...)
	if err != nil {
		s.logger.Error("job listing failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{OK: true, Jobs: jobs})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if jobID == "" || strings.Contains(jobID, "/") {
		s.writeError(w, http.StatusNotFound, api.CodeJobNotFound)
		return
	}

	job, err := s.store.JobByID(r.Context(), jobID)
	if err != nil {
		s.logger.Error("job lookup failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, api.CodeJobNotFound)
		return
	}
	if job.Status != queue.StatusDone {
		s.writeError(w, http.StatusConflict, api.CodeNotReady)
		return
	}

	artifact, err := os.Open(job.OutputPath)
	if err != nil {
		s.logger.Error("output artifact missing", logging.String("job_id", job.ID), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}
	defer artifact.Close()

	info, err := artifact.Stat()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.OutputName))
	http.ServeContent(w, r, job.OutputName, info.ModTime(), artifact)
}

// downloadBase builds the absolute URL prefix finished artifacts are served
// under, honoring reverse-proxy forwarding headers.
func (s *Server) downloadBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/api/download/"
}

var errFileTooLarge = errors.New("file exceeds upload ceiling")

// nextFilePart advances to the first multipart section carrying a filename.
func nextFilePart(reader *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FileName() == "" {
			_ = part.Close()
			continue
		}
		return part, nil
	}
}

func isArchiveUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".zip") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "application/zip", "application/x-zip-compressed":
		return true
	}
	return false
}

// streamToFile writes the part to path, enforcing the size ceiling while
// streaming. The partial file is removed on any failure.
func streamToFile(part io.Reader, path string, maxBytes int64) (int64, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(out, io.LimitReader(part, maxBytes+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	if written > maxBytes {
		_ = os.Remove(path)
		return 0, errFileTooLarge
	}
	return written, nil
}
