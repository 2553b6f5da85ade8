//nolint:revive // exported
package rworkflow

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api/middleware/mwrequest"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/eventstream"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/fuzzyfinder"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/patch"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/service/sworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

const ServiceName = "scanflow.workflow.v1.WorkflowService"

const (
	ParseProcedure          = "/" + ServiceName + "/Parse"
	UpdateStepProcedure     = "/" + ServiceName + "/UpdateStep"
	SerializeProcedure      = "/" + ServiceName + "/Serialize"
	GetFlowModulesProcedure = "/" + ServiceName + "/GetFlowModules"
	LintProcedure           = "/" + ServiceName + "/Lint"
	SearchNodesProcedure    = "/" + ServiceName + "/SearchNodes"
	GetWorkflowProcedure    = "/" + ServiceName + "/GetWorkflow"
	SaveWorkflowProcedure   = "/" + ServiceName + "/SaveWorkflow"
	ListWorkflowsProcedure  = "/" + ServiceName + "/ListWorkflows"
)

// WorkflowEvent is published on the workflow id topic after every save.
type WorkflowEvent struct {
	ID       string           `json:"id"`
	Revision idwrap.IDWrap    `json:"revision"`
	Hash     string           `json:"hash"`
	Graph    *mworkflow.Graph `json:"graph"`
}

type Streamer = eventstream.SyncStreamer[string, WorkflowEvent]

type ParseRequest struct {
	Text string `json:"text"`
}

type ParseResponse struct {
	Graph *mworkflow.Graph `json:"graph"`
	Mode  string           `json:"mode"`
}

// UpdateStepRequest carries a step edit. A null field value removes the key.
type UpdateStepRequest struct {
	Text   string         `json:"text"`
	Step   string         `json:"step"`
	Fields map[string]any `json:"fields"`
}

type UpdateStepResponse struct {
	Text  string           `json:"text"`
	Graph *mworkflow.Graph `json:"graph"`
}

type SerializeRequest struct {
	Document mworkflow.Document `json:"document"`
}

type SerializeResponse struct {
	Text string `json:"text"`
}

type GetFlowModulesRequest struct {
	Text         string `json:"text"`
	FallbackName string `json:"fallbackName"`
}

// GetFlowModulesResponse lists modules in their document mapping form.
type GetFlowModulesResponse struct {
	Modules []map[string]any `json:"modules"`
}

type LintRequest struct {
	Text string `json:"text"`
}

type LintResponse struct {
	Diagnostics []yamlworkflow.Diagnostic `json:"diagnostics"`
	HasErrors   bool                      `json:"hasErrors"`
}

type SearchNodesRequest struct {
	Text  string `json:"text"`
	Query string `json:"query"`
}

type SearchNodesResponse struct {
	Matches []fuzzyfinder.NodeMatch `json:"matches"`
}

type GetWorkflowRequest struct {
	ID       string `json:"id"`
	Revision string `json:"revision,omitempty"`
}

type GetWorkflowResponse struct {
	Workflow sworkflow.Workflow `json:"workflow"`
	Graph    *mworkflow.Graph   `json:"graph"`
}

// SaveWorkflowRequest stores Text under ID. ExpectedHash, when set, must
// match the stored head or the save is rejected.
type SaveWorkflowRequest struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	ExpectedHash string `json:"expectedHash,omitempty"`
}

type SaveWorkflowResponse struct {
	Workflow sworkflow.Workflow `json:"workflow"`
}

type ListWorkflowsRequest struct{}

type ListWorkflowsResponse struct {
	Workflows []sworkflow.Summary `json:"workflows"`
}

type WorkflowServiceRPC struct {
	store  *sworkflow.WorkflowService
	stream Streamer
	logger *slog.Logger
}

func New(store *sworkflow.WorkflowService, stream Streamer, logger *slog.Logger) *WorkflowServiceRPC {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowServiceRPC{store: store, stream: stream, logger: logger}
}

func CreateService(srv *WorkflowServiceRPC, options []connect.HandlerOption) (*api.Service, error) {
	mux := http.NewServeMux()
	mux.Handle(ParseProcedure, connect.NewUnaryHandler(ParseProcedure, srv.Parse, options...))
	mux.Handle(UpdateStepProcedure, connect.NewUnaryHandler(UpdateStepProcedure, srv.UpdateStep, options...))
	mux.Handle(SerializeProcedure, connect.NewUnaryHandler(SerializeProcedure, srv.Serialize, options...))
	mux.Handle(GetFlowModulesProcedure, connect.NewUnaryHandler(GetFlowModulesProcedure, srv.GetFlowModules, options...))
	mux.Handle(LintProcedure, connect.NewUnaryHandler(LintProcedure, srv.Lint, options...))
	mux.Handle(SearchNodesProcedure, connect.NewUnaryHandler(SearchNodesProcedure, srv.SearchNodes, options...))
	mux.Handle(GetWorkflowProcedure, connect.NewUnaryHandler(GetWorkflowProcedure, srv.GetWorkflow, options...))
	mux.Handle(SaveWorkflowProcedure, connect.NewUnaryHandler(SaveWorkflowProcedure, srv.SaveWorkflow, options...))
	mux.Handle(ListWorkflowsProcedure, connect.NewUnaryHandler(ListWorkflowsProcedure, srv.ListWorkflows, options...))
	return &api.Service{Path: "/" + ServiceName + "/", Handler: mux}, nil
}

func (c *WorkflowServiceRPC) Parse(ctx context.Context, req *connect.Request[ParseRequest]) (*connect.Response[ParseResponse], error) {
	doc, err := yamlworkflow.DecodeDocument([]byte(req.Msg.Text))
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	return connect.NewResponse(&ParseResponse{
		Graph: yamlworkflow.ParseDocument(doc),
		Mode:  yamlworkflow.ModeOf(doc).String(),
	}), nil
}

func (c *WorkflowServiceRPC) UpdateStep(ctx context.Context, req *connect.Request[UpdateStepRequest]) (*connect.Response[UpdateStepResponse], error) {
	if req.Msg.Step == "" {
		return nil, errmap.ToConnect(errmap.New(errmap.CodeInvalidArgument, "step name is required"))
	}
	doc, err := yamlworkflow.DecodeDocument([]byte(req.Msg.Text))
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	updated, err := yamlworkflow.UpdateStepPatch(doc, req.Msg.Step, patch.FromFields(req.Msg.Fields))
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	text, err := yamlworkflow.Serialize(updated)
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	graph, err := yamlworkflow.Parse(text)
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	return connect.NewResponse(&UpdateStepResponse{Text: string(text), Graph: graph}), nil
}

func (c *WorkflowServiceRPC) Serialize(ctx context.Context, req *connect.Request[SerializeRequest]) (*connect.Response[SerializeResponse], error) {
	text, err := yamlworkflow.Serialize(req.Msg.Document)
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	return connect.NewResponse(&SerializeResponse{Text: string(text)}), nil
}

func (c *WorkflowServiceRPC) GetFlowModules(ctx context.Context, req *connect.Request[GetFlowModulesRequest]) (*connect.Response[GetFlowModulesResponse], error) {
	doc, err := yamlworkflow.DecodeDocument([]byte(req.Msg.Text))
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	found := yamlworkflow.GetFlowModules(doc, req.Msg.FallbackName)
	modules := make([]map[string]any, len(found))
	for i, m := range found {
		modules[i] = m.ToMap()
	}
	return connect.NewResponse(&GetFlowModulesResponse{Modules: modules}), nil
}

func (c *WorkflowServiceRPC) Lint(ctx context.Context, req *connect.Request[LintRequest]) (*connect.Response[LintResponse], error) {
	doc, err := yamlworkflow.DecodeDocument([]byte(req.Msg.Text))
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	diags := yamlworkflow.Lint(doc)
	if diags == nil {
		diags = []yamlworkflow.Diagnostic{}
	}
	return connect.NewResponse(&LintResponse{Diagnostics: diags, HasErrors: yamlworkflow.HasErrors(diags)}), nil
}

func (c *WorkflowServiceRPC) SearchNodes(ctx context.Context, req *connect.Request[SearchNodesRequest]) (*connect.Response[SearchNodesResponse], error) {
	graph, err := yamlworkflow.Parse([]byte(req.Msg.Text))
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	matches := fuzzyfinder.SearchNodes(graph, req.Msg.Query)
	if matches == nil {
		matches = []fuzzyfinder.NodeMatch{}
	}
	return connect.NewResponse(&SearchNodesResponse{Matches: matches}), nil
}

func (c *WorkflowServiceRPC) GetWorkflow(ctx context.Context, req *connect.Request[GetWorkflowRequest]) (*connect.Response[GetWorkflowResponse], error) {
	var (
		wf  sworkflow.Workflow
		err error
	)
	if req.Msg.Revision == "" {
		wf, err = c.store.Get(ctx, req.Msg.ID)
	} else {
		rev, parseErr := idwrap.NewText(req.Msg.Revision)
		if parseErr != nil {
			return nil, errmap.ToConnect(errmap.Wrap(errmap.CodeInvalidArgument, "invalid revision id", parseErr))
		}
		wf, err = c.store.GetRevision(ctx, req.Msg.ID, rev)
	}
	if err != nil {
		return nil, errmap.ToConnect(err)
	}

	graph, err := yamlworkflow.Parse([]byte(wf.Text))
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	return connect.NewResponse(&GetWorkflowResponse{Workflow: wf, Graph: graph}), nil
}

func (c *WorkflowServiceRPC) SaveWorkflow(ctx context.Context, req *connect.Request[SaveWorkflowRequest]) (*connect.Response[SaveWorkflowResponse], error) {
	wf, err := c.store.Save(ctx, req.Msg.ID, []byte(req.Msg.Text), req.Msg.ExpectedHash)
	if err != nil {
		c.logger.Warn("save workflow failed",
			"request_id", mwrequest.FromContext(ctx),
			"id", req.Msg.ID,
			"error", err,
		)
		return nil, errmap.ToConnect(err)
	}

	if c.stream != nil {
		graph, err := yamlworkflow.Parse([]byte(wf.Text))
		if err != nil {
			return nil, errmap.ToConnect(err)
		}
		c.stream.Publish(wf.ID, WorkflowEvent{ID: wf.ID, Revision: wf.Revision, Hash: wf.Hash, Graph: graph})
	}
	return connect.NewResponse(&SaveWorkflowResponse{Workflow: wf}), nil
}

func (c *WorkflowServiceRPC) ListWorkflows(ctx context.Context, _ *connect.Request[ListWorkflowsRequest]) (*connect.Response[ListWorkflowsResponse], error) {
	list, err := c.store.List(ctx)
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	if list == nil {
		list = []sworkflow.Summary{}
	}
	return connect.NewResponse(&ListWorkflowsResponse{Workflows: list}), nil
}
