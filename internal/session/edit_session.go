// Package session implements the per-appointment edit workflow as an explicit
// state machine. A session holds one appointment's in-progress edits, at most
// one file selected for upload, and a single phase marker so the two async
// operations (upload report, save fields) can never run at the same time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"clinic-portal-server/internal/models"
)

var (
	// ErrSessionBusy is returned when an operation requires the idle phase
	// while an upload or save is still in flight.
	ErrSessionBusy = errors.New("another operation is in flight for this session")

	// ErrSessionClosed is returned for any operation on a completed or
	// discarded session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNoPendingFile is returned by Upload when no file has been selected.
	ErrNoPendingFile = errors.New("no file selected for upload")

	// ErrInvalidStatus is returned when a draft status update is not one of
	// the four enumerated values. Rejected locally, never sent upstream.
	ErrInvalidStatus = errors.New("status must be one of PENDING, CONFIRMED, COMPLETED, CANCELLED")

	// ErrUnknownField is returned for a draft update naming a non-editable
	// field.
	ErrUnknownField = errors.New("unknown editable field")
)

// Phase is the single active-operation marker of a session. Exactly one value
// holds at a time, which rules out the impossible flag combinations a set of
// booleans would allow.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseSaving    Phase = "saving"
)

// Draft holds the editable fields of the target appointment. It is a copy;
// the fetched record is never mutated.
type Draft struct {
	AppointmentDate    string                   `json:"appointmentDate"`
	Status             models.AppointmentStatus `json:"status"`
	MedicalRequirement string                   `json:"medicalRequirement"`
	Remarks            string                   `json:"remarks"`
	ClinicReportURL    string                   `json:"clinicReportUrl"`
}

// FileUpload is a report file selected for upload.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportUploader stores a report file for an appointment and returns the URL
// of the stored artifact.
type ReportUploader interface {
	UploadReport(ctx context.Context, appointmentID string, file FileUpload) (string, error)
}

// AppointmentSaver posts the full editable field set for an appointment and
// returns the canonical updated record.
type AppointmentSaver interface {
	UpdateAppointment(ctx context.Context, appointmentID string, draft Draft) (models.Appointment, error)
}

// EditSession manages one appointment's edit/upload workflow. All methods are
// safe for concurrent use; the phase guard serializes the async operations.
type EditSession struct {
	id            string
	owner         string
	appointmentID string
	uploader      ReportUploader
	saver         AppointmentSaver

	mu          sync.Mutex
	phase       Phase
	draft       Draft
	pendingFile *FileUpload
	uploaded    bool
	closed      bool
}

// New creates a session seeded from the target appointment's current fields.
// The date is truncated to the precision the edit control accepts.
func New(appt models.Appointment, uploader ReportUploader, saver AppointmentSaver) *EditSession {
	return &EditSession{
		id:            uuid.New().String(),
		appointmentID: appt.ID,
		uploader:      uploader,
		saver:         saver,
		phase:         PhaseIdle,
		draft: Draft{
			AppointmentDate:    appt.DraftDate(),
			Status:             appt.Status,
			MedicalRequirement: appt.MedicalRequirement,
			Remarks:            appt.Remarks,
			ClinicReportURL:    appt.ClinicReportURL,
		},
	}
}

// ID returns the session identifier.
func (s *EditSession) ID() string { return s.id }

// Owner returns the identity the session was opened for.
func (s *EditSession) Owner() string { return s.owner }

// AppointmentID returns the identifier of the appointment being edited.
func (s *EditSession) AppointmentID() string { return s.appointmentID }

// Phase returns the current phase.
func (s *EditSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Draft returns a copy of the current draft.
func (s *EditSession) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// HasPendingFile reports whether a file is selected but not yet uploaded.
func (s *EditSession) HasPendingFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingFile != nil
}

// Uploaded reports whether the last selected file was uploaded successfully.
// Selecting a new file clears the marker.
func (s *EditSession) Uploaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded
}

// CanUpload reports whether an upload may start now.
func (s *EditSession) CanUpload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.phase == PhaseIdle && s.pendingFile != nil
}

// CanSave reports whether a save may start now.
func (s *EditSession) CanSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.phase == PhaseIdle
}

// Closed reports whether the session has completed or been discarded.
func (s *EditSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SelectFile replaces the pending file. Requires the idle phase. No network
// call is made; the previous upload-success marker is cleared.
func (s *EditSession) SelectFile(file FileUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseIdle {
		return ErrSessionBusy
	}
	s.pendingFile = &file
	s.uploaded = false
	return nil
}

// UpdateField mutates exactly one draft field. Requires the idle phase. A
// status value outside the enumerated set is rejected before it can reach the
// network layer.
func (s *EditSession) UpdateField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseIdle {
		return ErrSessionBusy
	}

	switch name {
	case "appointmentDate":
		s.draft.AppointmentDate = value
	case "status":
		status := models.AppointmentStatus(value)
		if !status.Valid() {
			return ErrInvalidStatus
		}
		// Exclusive single choice: the new status fully replaces the old one.
		s.draft.Status = status
	case "medicalRequirement":
		s.draft.MedicalRequirement = value
	case "remarks":
		s.draft.Remarks = value
	case "clinicReportUrl":
		s.draft.ClinicReportURL = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Upload sends the pending file to the report-upload collaborator. On success
// the draft's report URL is set to the returned URL and the pending file is
// cleared. On failure the draft is untouched and the session returns to idle;
// the caller decides whether to retry. Single-shot, no automatic retry.
func (s *EditSession) Upload(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return "", ErrSessionBusy
	}
	if s.pendingFile == nil {
		s.mu.Unlock()
		return "", ErrNoPendingFile
	}
	file := *s.pendingFile
	s.phase = PhaseUploading
	s.mu.Unlock()

	url, err := s.uploader.UploadReport(ctx, s.appointmentID, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
	if err != nil {
		return "", err
	}
	s.draft.ClinicReportURL = url
	s.pendingFile = nil
	s.uploaded = true
	return url, nil
}

// Save posts the full draft to the update collaborator. On success the
// canonical record from the server supersedes the draft and the session
// completes; the caller merges the record into its collection. On failure the
// draft is untouched and the session returns to idle so the edits are not
// lost. Single-shot, no automatic retry.
func (s *EditSession) Save(ctx context.Context) (models.Appointment, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.Appointment{}, ErrSessionClosed
	}
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return models.Appointment{}, ErrSessionBusy
	}
	draft := s.draft
	s.phase = PhaseSaving
	s.mu.Unlock()

	updated, err := s.saver.UpdateAppointment(ctx, s.appointmentID, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
	if err != nil {
		return models.Appointment{}, err
	}
	s.closed = true
	return updated, nil
}

// Close discards the session. Only an idle session may be closed; a close
// while an operation is in flight is rejected so a late response can never
// mutate a disposed session.
func (s *EditSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.phase != PhaseIdle {
		return ErrSessionBusy
	}
	s.closed = true
	return nil
}
