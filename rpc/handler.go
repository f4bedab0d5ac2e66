// Package rpc exposes a directory node over Connect.
//
// Every operation is a unary call under the directory.v1.DirectoryService
// service with JSON bodies, so any HTTP client can reach it:
//
//	curl -X POST -H 'Content-Type: application/json' \
//	    -d '{"nicknamePrefix":"ali"}' \
//	    http://localhost:8080/directory.v1.DirectoryService/SearchRecords
package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/directory/agent"
	"github.com/tailored-agentic-units/directory/directory"
	"github.com/tailored-agentic-units/directory/node"
	"github.com/tailored-agentic-units/directory/record"
	"github.com/tailored-agentic-units/directory/token"
)

const ServiceName = "directory.v1.DirectoryService"

const (
	CreateRecordProcedure        = "/" + ServiceName + "/CreateRecord"
	UpdateRecordProcedure        = "/" + ServiceName + "/UpdateRecord"
	GetMyRecordProcedure         = "/" + ServiceName + "/GetMyRecord"
	GetAllRecordsProcedure       = "/" + ServiceName + "/GetAllRecords"
	GetRecordsForAgentsProcedure = "/" + ServiceName + "/GetRecordsForAgents"
	SearchRecordsProcedure       = "/" + ServiceName + "/SearchRecords"
)

// Directory is the operation surface served for one agent. *node.Node
// implements it.
type Directory interface {
	CreateRecord(ctx context.Context, in record.Input) (directory.Entry, error)
	UpdateRecord(ctx context.Context, in record.Input) (directory.Entry, error)
	MyRecord() (directory.Entry, bool)
	AllRecords() []directory.Entry
	RecordsForAgents(ids []agent.ID) []directory.Entry
	SearchRecords(prefix string) []directory.Entry
}

type server struct {
	dir Directory
}

// NewHandler returns the mount path and handler for dir.
func NewHandler(dir Directory, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	s := &server{dir: dir}

	mux := http.NewServeMux()
	mux.Handle(CreateRecordProcedure, connect.NewUnaryHandler(CreateRecordProcedure, s.createRecord, opts...))
	mux.Handle(UpdateRecordProcedure, connect.NewUnaryHandler(UpdateRecordProcedure, s.updateRecord, opts...))
	mux.Handle(GetMyRecordProcedure, connect.NewUnaryHandler(GetMyRecordProcedure, s.getMyRecord, opts...))
	mux.Handle(GetAllRecordsProcedure, connect.NewUnaryHandler(GetAllRecordsProcedure, s.getAllRecords, opts...))
	mux.Handle(GetRecordsForAgentsProcedure, connect.NewUnaryHandler(GetRecordsForAgentsProcedure, s.getRecordsForAgents, opts...))
	mux.Handle(SearchRecordsProcedure, connect.NewUnaryHandler(SearchRecordsProcedure, s.searchRecords, opts...))

	return "/" + ServiceName + "/", mux
}

func (s *server) createRecord(ctx context.Context, req *connect.Request[CreateRecordRequest]) (*connect.Response[WriteRecordResponse], error) {
	entry, err := s.dir.CreateRecord(ctx, toInput(req.Msg.Nickname, req.Msg.Fields))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&WriteRecordResponse{Hash: entry.Hash.String(), Entry: toAgentRecord(entry)}), nil
}

func (s *server) updateRecord(ctx context.Context, req *connect.Request[UpdateRecordRequest]) (*connect.Response[WriteRecordResponse], error) {
	entry, err := s.dir.UpdateRecord(ctx, toInput(req.Msg.Nickname, req.Msg.Fields))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&WriteRecordResponse{Hash: entry.Hash.String(), Entry: toAgentRecord(entry)}), nil
}

func (s *server) getMyRecord(_ context.Context, _ *connect.Request[GetMyRecordRequest]) (*connect.Response[GetMyRecordResponse], error) {
	res := &GetMyRecordResponse{}
	if entry, ok := s.dir.MyRecord(); ok {
		r := toAgentRecord(entry)
		res.Record = &r
	}
	return connect.NewResponse(res), nil
}

func (s *server) getAllRecords(_ context.Context, _ *connect.Request[GetAllRecordsRequest]) (*connect.Response[RecordsResponse], error) {
	return connect.NewResponse(toRecords(s.dir.AllRecords())), nil
}

func (s *server) getRecordsForAgents(_ context.Context, req *connect.Request[GetRecordsForAgentsRequest]) (*connect.Response[RecordsResponse], error) {
	ids := make([]agent.ID, 0, len(req.Msg.Agents))
	for _, tok := range req.Msg.Agents {
		id, err := agent.Parse(tok)
		if err != nil {
			return nil, toConnectError(err)
		}
		ids = append(ids, id)
	}
	return connect.NewResponse(toRecords(s.dir.RecordsForAgents(ids))), nil
}

func (s *server) searchRecords(_ context.Context, req *connect.Request[SearchRecordsRequest]) (*connect.Response[RecordsResponse], error) {
	return connect.NewResponse(toRecords(s.dir.SearchRecords(req.Msg.NicknamePrefix))), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, record.ErrInvalidArgument), errors.Is(err, token.ErrMalformed):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, record.ErrRecordExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, record.ErrNoRecord):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, node.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
