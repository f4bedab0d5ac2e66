package rpc

import (
	"context"

	"connectrpc.com/connect"
)

// Client calls a directory node served by NewHandler.
type Client struct {
	createRecord        *connect.Client[CreateRecordRequest, WriteRecordResponse]
	updateRecord        *connect.Client[UpdateRecordRequest, WriteRecordResponse]
	getMyRecord         *connect.Client[GetMyRecordRequest, GetMyRecordResponse]
	getAllRecords       *connect.Client[GetAllRecordsRequest, RecordsResponse]
	getRecordsForAgents *connect.Client[GetRecordsForAgentsRequest, RecordsResponse]
	searchRecords       *connect.Client[SearchRecordsRequest, RecordsResponse]
}

// NewClient returns a client for the node at baseURL, for example
// http://localhost:8080.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &Client{
		createRecord:        connect.NewClient[CreateRecordRequest, WriteRecordResponse](httpClient, baseURL+CreateRecordProcedure, opts...),
		updateRecord:        connect.NewClient[UpdateRecordRequest, WriteRecordResponse](httpClient, baseURL+UpdateRecordProcedure, opts...),
		getMyRecord:         connect.NewClient[GetMyRecordRequest, GetMyRecordResponse](httpClient, baseURL+GetMyRecordProcedure, opts...),
		getAllRecords:       connect.NewClient[GetAllRecordsRequest, RecordsResponse](httpClient, baseURL+GetAllRecordsProcedure, opts...),
		getRecordsForAgents: connect.NewClient[GetRecordsForAgentsRequest, RecordsResponse](httpClient, baseURL+GetRecordsForAgentsProcedure, opts...),
		searchRecords:       connect.NewClient[SearchRecordsRequest, RecordsResponse](httpClient, baseURL+SearchRecordsProcedure, opts...),
	}
}

func (c *Client) CreateRecord(ctx context.Context, req *CreateRecordRequest) (*WriteRecordResponse, error) {
	return call(ctx, c.createRecord, req)
}

func (c *Client) UpdateRecord(ctx context.Context, req *UpdateRecordRequest) (*WriteRecordResponse, error) {
	return call(ctx, c.updateRecord, req)
}

// GetMyRecord returns a nil Record when the agent has none.
func (c *Client) GetMyRecord(ctx context.Context) (*GetMyRecordResponse, error) {
	return call(ctx, c.getMyRecord, &GetMyRecordRequest{})
}

func (c *Client) GetAllRecords(ctx context.Context) (*RecordsResponse, error) {
	return call(ctx, c.getAllRecords, &GetAllRecordsRequest{})
}

func (c *Client) GetRecordsForAgents(ctx context.Context, agents ...string) (*RecordsResponse, error) {
	return call(ctx, c.getRecordsForAgents, &GetRecordsForAgentsRequest{Agents: agents})
}

func (c *Client) SearchRecords(ctx context.Context, prefix string) (*RecordsResponse, error) {
	return call(ctx, c.searchRecords, &SearchRecordsRequest{NicknamePrefix: prefix})
}

func call[Req, Res any](ctx context.Context, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	res, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
