package server

import (
	"encoding/json"
	"time"

	"github.com/lox/twentyfour/internal/batch"
	"github.com/lox/twentyfour/internal/game"
)

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	// Client to server
	MessageTypeDeal   MessageType = "deal"
	MessageTypeCheck  MessageType = "check"
	MessageTypeReveal MessageType = "reveal"
	MessageTypeReset  MessageType = "reset"
	MessageTypeSolve  MessageType = "solve"
	MessageTypeGrade  MessageType = "grade"

	// Server to client
	MessageTypeHand     MessageType = "hand"
	MessageTypeResult   MessageType = "result"
	MessageTypeSolution MessageType = "solution"
	MessageTypeState    MessageType = "state"
	MessageTypeGraded   MessageType = "graded"
	MessageTypeExpired  MessageType = "expired"
	MessageTypeError    MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for every WebSocket frame. Replies carry the
// RequestID of the message they answer.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CheckData struct {
	Answer string `json:"answer"`
}

type SolveData struct {
	Cards []string `json:"cards"`
}

type GradeData struct {
	Lines []string `json:"lines"`
}

// Server → Client Messages

type StateData struct {
	SessionID        string   `json:"sessionId"`
	Phase            string   `json:"phase"`
	Round            int      `json:"round"`
	Cards            []string `json:"cards,omitempty"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	RemainingMillis  int64    `json:"remainingMillis"`
	Score            int      `json:"score"`
	HighScore        int      `json:"highScore"`
	Combo            int      `json:"combo"`
	FirstTry         bool     `json:"firstTry"`
	Attempts         int      `json:"attempts"`
	Solution         string   `json:"solution,omitempty"`
	Solved           int      `json:"solved"`
	BestMillis       int64    `json:"bestMillis,omitempty"`
	MeanMillis       int64    `json:"meanMillis,omitempty"`
}

// StateDataFromGame converts a session snapshot to its wire form.
func StateDataFromGame(sessionID string, st game.State) StateData {
	data := StateData{
		SessionID:        sessionID,
		Phase:            st.Phase.String(),
		Round:            st.Round,
		TimeLimitSeconds: int(st.TimeLimit / time.Second),
		RemainingMillis:  st.Remaining.Milliseconds(),
		Score:            st.Score,
		HighScore:        st.HighScore,
		Combo:            st.Combo,
		FirstTry:         st.FirstTry,
		Attempts:         st.Attempts,
		Solution:         st.Solution,
		Solved:           st.SolveTimes.Count,
		BestMillis:       st.SolveTimes.Best.Milliseconds(),
		MeanMillis:       st.SolveTimes.Mean.Milliseconds(),
	}
	if !st.Hand.IsZero() {
		data.Cards = st.Hand.Tokens()
	}
	return data
}

type HandData struct {
	Cards []string  `json:"cards"`
	State StateData `json:"state"`
}

type ResultData struct {
	Verdict      string    `json:"verdict"`
	Correct      bool      `json:"correct"`
	Points       int       `json:"points"`
	NewHighScore bool      `json:"newHighScore,omitempty"`
	Error        string    `json:"error,omitempty"`
	State        StateData `json:"state"`
}

type SolutionData struct {
	Cards    []string `json:"cards"`
	Found    bool     `json:"found"`
	Solution string   `json:"solution,omitempty"`
}

type GradedLine struct {
	Line     string `json:"line"`
	Status   string `json:"status"`
	Solution string `json:"solution,omitempty"`
	Error    string `json:"error,omitempty"`
}

type GradedData struct {
	Results []GradedLine `json:"results"`
	Solved  int          `json:"solved"`
	Invalid int          `json:"invalid"`
	Total   int          `json:"total"`
	Summary string       `json:"summary"`
}

// GradedDataFromBatch converts batch results to their wire form.
func GradedDataFromBatch(results []batch.LineResult) GradedData {
	sum := batch.Summarize(results)
	data := GradedData{
		Results: make([]GradedLine, len(results)),
		Solved:  sum.Solved,
		Invalid: sum.Invalid,
		Total:   sum.Total,
		Summary: sum.String(),
	}
	for i, res := range results {
		line := GradedLine{Line: res.Line, Status: res.Status.String(), Solution: res.Solution}
		if res.Err != nil {
			line.Error = res.Err.Error()
		}
		data.Results[i] = line
	}
	return data
}

type ExpiredData struct {
	Solution string    `json:"solution"`
	State    StateData `json:"state"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
