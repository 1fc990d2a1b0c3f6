package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/generator"
	"github.com/conorfennell/flashlearn/internal/importer"
	"github.com/conorfennell/flashlearn/internal/parser"
	"github.com/conorfennell/flashlearn/internal/prefs"
	"github.com/conorfennell/flashlearn/internal/study"
)

const maxUploadBytes = 10 << 20

var funcs = template.FuncMap{
	"elapsed": study.FormatElapsed,
	"percent": func(s study.Snapshot) int { return int(s.Progress() * 100) },
}

type pageData struct {
	DarkMode     bool
	Custom       bool
	Categories   []string
	Difficulties []domain.Difficulty
	CountOptions []int
	Defaults     study.Filter
	Study        studyView
}

// studyView is the data behind the "study" partial.
type studyView struct {
	study.Snapshot
	Notice string
	Error  bool
}

func (v studyView) Idle() bool     { return v.Phase == study.PhaseIdle }
func (v studyView) Active() bool   { return v.Phase == study.PhaseActive }
func (v studyView) Complete() bool { return v.Phase == study.PhaseComplete }

func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			DarkMode:     prefs.DarkMode(s.Store),
			Custom:       s.Library.Custom(),
			Categories:   append([]string{study.AllCategories}, s.Library.Categories()...),
			Difficulties: domain.Difficulties,
			CountOptions: study.CountOptions,
			Defaults:     study.DefaultFilter(),
			Study:        studyView{Snapshot: s.Controller.Snapshot()},
		}
		s.render(w, http.StatusOK, "index", data)
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
}

// handleStart begins a session from the setup form.
func (s *Server) handleStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := study.DefaultCount
		if raw := r.PostFormValue("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				s.renderStudy(w, http.StatusBadRequest, "Invalid question count.")
				return
			}
			count = n
		}
		filter, err := study.ParseFilter(r.PostFormValue("category"), r.PostFormValue("difficulty"), count)
		if err != nil {
			s.renderStudy(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.Controller.Start(filter); err != nil {
			if errors.Is(err, study.ErrNoCards) {
				s.renderStudy(w, http.StatusUnprocessableEntity, "No cards available for the selected category and difficulty.")
				return
			}
			s.Logger.Error("Failed to start session", "error", err)
			s.renderStudy(w, http.StatusInternalServerError, "Could not start a session.")
			return
		}
		s.renderStudy(w, http.StatusOK, "")
	}
}

func (s *Server) handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderStudy(w, http.StatusOK, "")
	}
}

func (s *Server) handleFlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderControllerResult(w, s.Controller.Flip())
	}
}

func (s *Server) handleHint() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Controller.ToggleHint()
		s.renderStudy(w, http.StatusOK, "")
	}
}

func (s *Server) handleJudge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verdict, err := study.ParseVerdict(r.PostFormValue("verdict"))
		if err != nil {
			s.renderStudy(w, http.StatusBadRequest, "Unknown verdict.")
			return
		}
		s.renderControllerResult(w, s.Controller.Judge(verdict))
	}
}

func (s *Server) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Controller.Reset(); err != nil {
			s.renderStudy(w, http.StatusInternalServerError, "Cards were reset but the change could not be saved.")
			return
		}
		s.renderStudy(w, http.StatusOK, "All progress reset. Default cards restored.")
	}
}

// handleImport replaces the custom cards with an uploaded CSV file.
func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			s.renderNotice(w, http.StatusBadRequest, "Please choose a .csv file to upload.", true)
			return
		}
		defer file.Close()

		cards, err := s.Importer.ImportReader(header.Filename, header.Header.Get("Content-Type"), file)
		var lineErr *parser.LineError
		switch {
		case err == nil:
			msg := fmt.Sprintf("%d flashcards imported and saved. Start a session to use them.", len(cards))
			s.renderNotice(w, http.StatusOK, msg, false)
		case errors.Is(err, importer.ErrInvalidFileType):
			s.renderNotice(w, http.StatusUnsupportedMediaType, "Invalid file type. Please upload a .csv file.", true)
		case errors.Is(err, parser.ErrEmpty):
			s.renderNotice(w, http.StatusUnprocessableEntity, "The CSV file is empty or contains no valid flashcard data.", true)
		case errors.As(err, &lineErr):
			s.renderNotice(w, http.StatusUnprocessableEntity, "Import error: "+lineErr.Error(), true)
		default:
			s.Logger.Error("Import failed", "file", header.Filename, "error", err)
			s.renderNotice(w, http.StatusInternalServerError, "Failed to import the file.", true)
		}
	}
}

// handleGenerate appends mock cards for a topic to the custom set.
func (s *Server) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := strings.TrimSpace(r.PostFormValue("topic"))
		if topic == "" {
			s.renderNotice(w, http.StatusBadRequest, "Please enter a topic or text to generate flashcards from.", true)
			return
		}
		difficulty, err := domain.ParseDifficulty(r.PostFormValue("difficulty"))
		if err != nil {
			difficulty = domain.Medium
		}
		count, err := strconv.Atoi(r.PostFormValue("count"))
		if err != nil {
			count = 5
		}

		req := generator.Request{Topic: topic, Difficulty: difficulty, Count: count}
		cards, err := s.Generator.Generate(r.Context(), req)
		if err == nil {
			err = s.Library.Append(cards)
		}
		if err != nil {
			s.Logger.Warn("Generation failed", "topic", topic, "error", err)
			s.renderNotice(w, http.StatusInternalServerError, "There was an error generating flashcards. Please try again.", true)
			return
		}
		msg := fmt.Sprintf("%d flashcards created for topic: %q. Start a session to use them.", len(cards), topic)
		s.renderNotice(w, http.StatusOK, msg, false)
	}
}

func (s *Server) handleDarkMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		on, err := prefs.Toggle(s.Store)
		if err != nil {
			s.Logger.Warn("Failed to save dark mode", "error", err)
		}
		w.Header().Set("HX-Refresh", "true")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"dark_mode": on})
	}
}

type sessionResponse struct {
	ID          string       `json:"id,omitempty"`
	State       string       `json:"state"`
	Card        *domain.Card `json:"card,omitempty"`
	Flipped     bool         `json:"flipped"`
	HintVisible bool         `json:"hint_visible"`
	Locked      bool         `json:"locked"`
	Done        int          `json:"done"`
	Total       int          `json:"total"`
	Elapsed     string       `json:"elapsed"`
	Summary     *summaryJSON `json:"summary,omitempty"`
}

type summaryJSON struct {
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	Questions     int    `json:"questions"`
	KnownFirstTry int    `json:"known_first_try"`
	NeededReview  int    `json:"needed_review"`
	TotalTime     string `json:"total_time"`
}

func (s *Server) handleAPISession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap := s.Controller.Snapshot()
		resp := sessionResponse{
			ID:          snap.SessionID,
			State:       phaseName(snap.Phase),
			Flipped:     snap.Flipped,
			HintVisible: snap.HintVisible,
			Locked:      snap.Locked,
			Done:        snap.Done,
			Total:       snap.Total,
			Elapsed:     study.FormatElapsed(snap.Elapsed),
		}
		if snap.HasCard {
			card := snap.Card
			resp.Card = &card
		}
		if snap.Phase == study.PhaseComplete {
			sum := snap.Summary
			resp.Summary = &summaryJSON{
				Category:      sum.Filter.Category,
				Difficulty:    sum.Filter.Difficulty,
				Questions:     sum.Questions,
				KnownFirstTry: sum.KnownFirstTry,
				NeededReview:  sum.NeededReview,
				TotalTime:     study.FormatElapsed(sum.ElapsedSeconds),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func phaseName(p study.Phase) string {
	switch p {
	case study.PhaseActive:
		return "active"
	case study.PhaseComplete:
		return "complete"
	default:
		return "idle"
	}
}

func (s *Server) renderControllerResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		s.renderStudy(w, http.StatusOK, "")
	case errors.Is(err, study.ErrJudgementInFlight):
		s.renderStudy(w, http.StatusConflict, "")
	case errors.Is(err, study.ErrNoActiveSession):
		s.renderStudy(w, http.StatusConflict, "No active session. Start one first.")
	default:
		s.renderStudy(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) renderStudy(w http.ResponseWriter, status int, notice string) {
	view := studyView{
		Snapshot: s.Controller.Snapshot(),
		Notice:   notice,
		Error:    status >= http.StatusBadRequest,
	}
	s.render(w, status, "study", view)
}

func (s *Server) renderNotice(w http.ResponseWriter, status int, msg string, isErr bool) {
	s.render(w, status, "notice", studyView{Notice: msg, Error: isErr})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.Logger.Error("Failed to render template", "template", name, "error", err)
	}
}
