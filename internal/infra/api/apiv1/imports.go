package apiv1

import (
	"mime/multipart"
	"net/http"

	"gymdesk/internal/domain"
)

// uploadedSheet returns the "file" part of a multipart upload.
func (s *Server) uploadedSheet(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, "", domain.Invalid("file", "upload is missing or too large")
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", domain.Invalid("file", "is required")
	}
	return f, hdr.Filename, nil
}

func (s *Server) previewImport(w http.ResponseWriter, r *http.Request) {
	f, name, err := s.uploadedSheet(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	drafts, dropped, err := s.importUC.Preview(r.Context(), f, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]draftMemberJSON, 0, len(drafts))
	for _, d := range drafts {
		items = append(items, toDraftMember(d))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "dropped": dropped})
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request) {
	f, name, err := s.uploadedSheet(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	rep, err := s.importUC.Import(r.Context(), f, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"inserted": rep.Inserted,
		"dropped":  rep.Dropped,
		"message":  s.tr.T("import.done", rep.Inserted),
	})
}
