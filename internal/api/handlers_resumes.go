package api

import (
	"net/http"

	"github.com/rmoran/apptrack/internal/models"
)

// maxResumeSize caps uploads at 10 MiB.
const maxResumeSize = 10 << 20

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request, user models.User) {
	resumes, err := s.resumes.List(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if resumes == nil {
		resumes = []models.Resume{}
	}
	writeJSON(w, http.StatusOK, resumes)
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request, user models.User) {
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize)
	if err := r.ParseMultipartForm(maxResumeSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	resume, err := s.resumes.Upload(
		r.Context(),
		user.ID,
		header.Filename,
		r.FormValue("version"),
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resume)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request, user models.User) {
	if err := s.resumes.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownloadResume(w http.ResponseWriter, r *http.Request, user models.User) {
	url, err := s.resumes.DownloadURL(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
