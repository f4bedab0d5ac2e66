package rpc

import (
	"github.com/tailored-agentic-units/directory/directory"
	"github.com/tailored-agentic-units/directory/record"
)

// Record is the published content of one record version.
type Record struct {
	Nickname string            `json:"nickname"`
	Fields   map[string]string `json:"fields"`
}

// AgentRecord pairs an agent with its current record.
type AgentRecord struct {
	AgentPubKey string `json:"agentPubKey"`
	Hash        string `json:"hash"`
	Seq         uint64 `json:"seq"`
	Record      Record `json:"record"`
}

type CreateRecordRequest struct {
	Nickname string            `json:"nickname"`
	Fields   map[string]string `json:"fields,omitempty"`
}

type UpdateRecordRequest struct {
	Nickname string            `json:"nickname"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// WriteRecordResponse answers create and update with the new version hash
// and the resulting entry.
type WriteRecordResponse struct {
	Hash  string      `json:"hash"`
	Entry AgentRecord `json:"entry"`
}

type GetMyRecordRequest struct{}

// GetMyRecordResponse holds a null record when the agent has none.
type GetMyRecordResponse struct {
	Record *AgentRecord `json:"record"`
}

type GetAllRecordsRequest struct{}

type GetRecordsForAgentsRequest struct {
	Agents []string `json:"agents"`
}

type SearchRecordsRequest struct {
	NicknamePrefix string `json:"nicknamePrefix"`
}

// RecordsResponse lists entries in the directory's canonical order.
type RecordsResponse struct {
	Records []AgentRecord `json:"records"`
}

func toInput(nickname string, fields map[string]string) record.Input {
	return record.Input{Nickname: nickname, Fields: fields}
}

func toAgentRecord(e directory.Entry) AgentRecord {
	return AgentRecord{
		AgentPubKey: e.Agent.String(),
		Hash:        e.Hash.String(),
		Seq:         e.Record.Seq(),
		Record: Record{
			Nickname: e.Record.Nickname(),
			Fields:   e.Record.Fields(),
		},
	}
}

func toRecords(entries []directory.Entry) *RecordsResponse {
	out := make([]AgentRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAgentRecord(e))
	}
	return &RecordsResponse{Records: out}
}
