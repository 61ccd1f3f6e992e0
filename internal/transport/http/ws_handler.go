package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"arena-quiz-service/internal/app"
	"arena-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.ArenaService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ArenaService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type battlePayload struct {
	StageID         int `json:"stageId"`
	Total           int `json:"total"`
	Correct         int `json:"correct"`
	DurationMinutes int `json:"durationMinutes"`
}

type trainStartPayload struct {
	Mentor  string `json:"mentor"`
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
}

type answerPayload struct {
	Choice domain.Answer `json:"choice"`
}

type dailyPayload struct {
	Date string `json:"date"` // "02/01/2006"; empty means today
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and drives one user's request/response
// session. The first message must be a login; everything after operates on
// that user's live state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var userKey string
	defer func() {
		if userKey != "" {
			h.service.Logout(userKey)
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		if inbound.Type == "login" {
			var payload loginPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, "invalid login payload")
				continue
			}
			snap, err := h.service.Login(r.Context(), payload.Username, payload.Password)
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			userKey = snap.Identity.UserKey
			write(conn, "welcome", snap)
			continue
		}

		if userKey == "" {
			writeError(conn, domain.ErrNotLoggedIn.Error())
			continue
		}
		h.dispatch(conn, r, userKey, inbound)
	}
}

func (h *WSHandler) dispatch(conn *websocket.Conn, r *http.Request, userKey string, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "snapshot":
		snap, err := h.service.Snapshot(userKey)
		reply(conn, "snapshot", snap, err)
	case "stages":
		views, err := h.service.StageOverview(ctx, userKey)
		reply(conn, "stages", views, err)
	case "battle":
		var payload battlePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			writeError(conn, "invalid battle payload")
			return
		}
		report, err := h.service.ReportBattle(ctx, userKey, payload.StageID, domain.Attempt{
			Total:           payload.Total,
			Correct:         payload.Correct,
			DurationMinutes: payload.DurationMinutes,
		})
		reply(conn, "battleResult", report, err)
	case "mentors":
		bank, err := h.service.QuestionBank(ctx)
		reply(conn, "mentors", bank, err)
	case "train.start":
		var payload trainStartPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			writeError(conn, "invalid train.start payload")
			return
		}
		view, err := h.service.StartTraining(ctx, userKey, payload.Mentor, payload.Subject, payload.Topic)
		reply(conn, "session", view, err)
	case "question":
		question, err := h.service.CurrentQuestion(userKey)
		reply(conn, "question", question, err)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			writeError(conn, "invalid answer payload")
			return
		}
		feedback, err := h.service.SubmitAnswer(ctx, userKey, payload.Choice)
		reply(conn, "feedback", feedback, err)
	case "next":
		result, err := h.service.Advance(ctx, userKey)
		reply(conn, "advance", result, err)
	case "train.retry":
		view, err := h.service.RestartMissed(userKey)
		reply(conn, "session", view, err)
	case "train.fresh":
		view, err := h.service.RestartFresh(userKey)
		reply(conn, "session", view, err)
	case "train.end":
		if err := h.service.EndTraining(userKey); err != nil {
			writeError(conn, err.Error())
			return
		}
		write(conn, "trainingEnded", struct{}{})
	case "history":
		history, err := h.service.History(userKey)
		reply(conn, "history", history, err)
	case "daily":
		var payload dailyPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, "invalid daily payload")
				return
			}
		}
		day := time.Now()
		if payload.Date != "" {
			parsed, err := time.ParseInLocation("02/01/2006", payload.Date, time.Local)
			if err != nil {
				writeError(conn, "invalid date, want DD/MM/YYYY")
				return
			}
			day = parsed
		}
		daily, err := h.service.DailyStats(userKey, day)
		reply(conn, "daily", daily, err)
	default:
		writeError(conn, "unsupported message type")
	}
}

// reply writes either the operation's result or its error.
func reply[T any](conn *websocket.Conn, msgType string, payload T, err error) {
	if err != nil {
		writeError(conn, err.Error())
		return
	}
	write(conn, msgType, payload)
}

func write[T any](conn *websocket.Conn, msgType string, payload T) {
	if err := conn.WriteJSON(outboundMessage[T]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func writeError(conn *websocket.Conn, message string) {
	write(conn, "error", errorPayload{Message: message})
}
