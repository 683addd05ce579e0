package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clarion/internal/fileutil"
	"clarion/internal/logging"
	"clarion/internal/pipeline"
	"clarion/internal/preset"
)

// multipartMemoryLimit bounds the in-memory portion of a parsed upload;
// larger parts spill to temp files.
const multipartMemoryLimit = 32 << 20

const debugRecentJobs = 10

type errorResponse struct {
	Error            string   `json:"error"`
	Kind             string   `json:"kind,omitempty"`
	AvailablePresets []string `json:"available_presets,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %s", fileutil.FormatBytes(maxBytesErr.Limit)))
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing \"file\" form field")
		return
	}
	defer file.Close()

	var overrides preset.Overrides
	if raw := strings.TrimSpace(r.FormValue("overrides")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid overrides JSON")
			return
		}
	}

	result, err := s.processor.Process(r.Context(), pipeline.Request{
		Source:       file,
		OriginalName: header.Filename,
		PresetKey:    r.FormValue("preset"),
		Overrides:    overrides,
	})
	if err != nil {
		s.writeProcessError(w, err)
		return
	}
	defer result.Cleanup()
	s.streamResult(w, result)
}

func (s *Server) streamResult(w http.ResponseWriter, result *pipeline.Result) {
	output, err := os.Open(result.OutputPath)
	if err != nil {
		s.logger.Error("open transform output", logging.String("path", result.OutputPath), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "transform output unavailable")
		return
	}
	defer output.Close()

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.FormatInt(result.OutputBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(result.OriginalName)))
	w.Header().Set("X-Job-ID", result.JobID)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, output); err != nil {
		s.logger.Warn("stream transform output",
			logging.String(logging.FieldJobID, result.JobID),
			logging.Error(err))
	}
}

func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	kind := pipeline.KindOf(err)
	resp := errorResponse{Error: err.Error(), Kind: string(kind)}
	if kind == pipeline.KindUnknownPreset {
		resp.AvailablePresets = preset.Keys()
	}
	s.writeJSON(w, statusForKind(kind), resp)
}

func statusForKind(kind pipeline.FailureKind) int {
	switch kind {
	case pipeline.KindUnknownPreset:
		return http.StatusBadRequest
	case pipeline.KindToolUnavailable:
		return http.StatusServiceUnavailable
	case pipeline.KindProbe:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// downloadName keeps the original name so callers can match the result to
// what they uploaded. The body is always WAV regardless of the suffix.
func downloadName(original string) string {
	name := strings.TrimSpace(original)
	if name == "" {
		name = "audio.wav"
	}
	return "processed_" + name
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type debugResponse struct {
	Service          string       `json:"service"`
	Uptime           string       `json:"uptime"`
	ListenAddr       string       `json:"listen_addr"`
	FFmpegAvailable  bool         `json:"ffmpeg_available"`
	FFmpegVersion    string       `json:"ffmpeg_version,omitempty"`
	ScratchDir       string       `json:"scratch_dir"`
	ScratchDirExists bool         `json:"scratch_dir_exists"`
	ScratchFiles     []string     `json:"scratch_files"`
	Tools            []toolStatus `json:"tools"`
	Presets          []string     `json:"presets"`
	RecentJobs       []jobSummary `json:"recent_jobs,omitempty"`
}

type toolStatus struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

type jobSummary struct {
	JobID        string  `json:"job_id"`
	CreatedAt    string  `json:"created_at"`
	OriginalName string  `json:"original_name,omitempty"`
	Preset       string  `json:"preset"`
	State        string  `json:"state"`
	ErrorKind    string  `json:"error_kind,omitempty"`
	Duration     float64 `json:"duration_seconds,omitempty"`
	OutputBytes  int64   `json:"output_bytes,omitempty"`
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload := debugResponse{
		Service:    "clarion",
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		ListenAddr: s.cfg.ListenAddr(),
		ScratchDir: s.cfg.Paths.ScratchDir,
		Presets:    preset.Keys(),
	}

	entries, err := os.ReadDir(s.cfg.Paths.ScratchDir)
	if err == nil {
		payload.ScratchDirExists = true
		payload.ScratchFiles = make([]string, 0, len(entries))
		for _, entry := range entries {
			payload.ScratchFiles = append(payload.ScratchFiles, filepath.Join(s.cfg.Paths.ScratchDir, entry.Name()))
		}
	} else {
		payload.ScratchFiles = []string{}
	}

	for _, status := range s.processor.ToolStatuses() {
		payload.Tools = append(payload.Tools, toolStatus{
			Name:      status.Name,
			Command:   status.Command,
			Available: status.Available,
			Detail:    status.Detail,
		})
		if status.Name == "FFmpeg" {
			payload.FFmpegAvailable = status.Available
		}
	}
	if payload.FFmpegAvailable {
		if version, err := s.processor.TransformClient().Version(r.Context()); err == nil {
			payload.FFmpegVersion = version
		}
	}

	if s.store != nil {
		if records, err := s.store.Recent(r.Context(), debugRecentJobs); err == nil {
			for _, rec := range records {
				payload.RecentJobs = append(payload.RecentJobs, jobSummary{
					JobID:        rec.JobID,
					CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
					OriginalName: rec.OriginalName,
					Preset:       rec.Preset,
					State:        rec.State,
					ErrorKind:    rec.ErrorKind,
					Duration:     rec.DurationSeconds,
					OutputBytes:  rec.OutputBytes,
				})
			}
		} else {
			s.logger.Warn("read recent history", logging.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
