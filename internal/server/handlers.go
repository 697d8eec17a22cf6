package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/image-tune/internal/editor"
	"github.com/ironsheep/image-tune/internal/gateway"
	"github.com/ironsheep/image-tune/internal/imaging"
	"github.com/ironsheep/image-tune/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_open", "image_adjust").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramsError marks argument problems so they map to -32602 instead of a
// tool failure.
type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

// decodeArgs unmarshals tool arguments. Missing arguments decode as an empty object.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &paramsError{err: err}
	}
	return nil
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602. Tool execution errors return -32000; when
// the failure is something the user should be told about (a failed save, a
// transform that could not run) the message is that notice.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var perr *paramsError
		if errors.As(err, &perr) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		message := "Tool execution failed"
		if notice, ok := editor.Notice(err); ok {
			message = notice
		}
		return s.errorResponse(req.ID, codeToolFailed, message, err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session
	case "image_open":
		return s.handleImageOpen(ctx, args)
	case "image_adjust":
		return s.handleImageAdjust(ctx, args)
	case "image_discard":
		return s.handleImageDiscard(ctx, args)
	case "image_save":
		return s.handleImageSave(ctx)

	// Inspection
	case "image_preview":
		return s.handleImagePreview(ctx, args)
	case "image_sample_color":
		return s.handleImageSampleColor(ctx, args)
	case "image_info":
		return s.handleImageInfo()
	case "session_state":
		return s.editor.Status(), nil

	default:
		return nil, &paramsError{err: fmt.Errorf("unknown tool: %s", name)}
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Session Handlers ===

type imageOpenArgs struct {
	Path    string `json:"path"`
	Confirm bool   `json:"confirm"`
}

func (s *Server) handleImageOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	st, err := s.editor.Open(ctx, s.picker.Source(a.Path), gateway.StaticConfirmer(a.Confirm))
	if err != nil {
		return nil, err
	}
	return st, nil
}

type imageAdjustArgs struct {
	Factor *float64 `json:"factor"`
	Wait   bool     `json:"wait"`
}

type adjustResult struct {
	editor.Status
	Preview *imaging.SaturationStats `json:"preview,omitempty"`
}

func (s *Server) handleImageAdjust(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageAdjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Factor == nil {
		return nil, &paramsError{err: errors.New("factor is required")}
	}

	st, err := s.editor.Adjust(ctx, *a.Factor)
	if err != nil {
		return nil, err
	}
	result := adjustResult{Status: st}
	if a.Wait {
		img, err := s.editor.Preview(ctx)
		if err != nil {
			return nil, err
		}
		stats := imaging.MeasureSaturation(img.Pixels)
		result.Preview = &stats
	}
	return result, nil
}

type imageDiscardArgs struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleImageDiscard(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageDiscardArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	st, err := s.editor.Discard(ctx, gateway.StaticConfirmer(a.Confirm))
	if err != nil {
		return nil, err
	}
	return st, nil
}

type saveResult struct {
	Receipt gateway.Receipt `json:"receipt"`
	Status  editor.Status   `json:"status"`
}

func (s *Server) handleImageSave(ctx context.Context) (interface{}, error) {
	receipt, st, err := s.editor.Save(ctx)
	if err != nil {
		return nil, err
	}
	return saveResult{Receipt: receipt, Status: st}, nil
}

// === Inspection Handlers ===

type imagePreviewArgs struct {
	MaxDimension int `json:"max_dimension"`
}

type previewResult struct {
	*imaging.PreviewResult
	Saturation imaging.SaturationStats `json:"saturation"`
}

func (s *Server) handleImagePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imagePreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxDimension < 0 {
		return nil, &paramsError{err: fmt.Errorf("max_dimension must not be negative, got %d", a.MaxDimension)}
	}
	if a.MaxDimension == 0 {
		a.MaxDimension = s.previewMax
	}

	img, err := s.editor.Preview(ctx)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePreview(img, a.MaxDimension)
	if err != nil {
		return nil, err
	}
	return previewResult{
		PreviewResult: encoded,
		Saturation:    imaging.MeasureSaturation(img.Pixels),
	}, nil
}

type imageSampleColorArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleImageSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.editor.Preview(ctx)
	if err != nil {
		return nil, err
	}
	upright := img.Oriented()
	b := upright.Bounds()
	return imaging.SampleColor(upright, b.Min.X+a.X, b.Min.Y+a.Y)
}

func (s *Server) handleImageInfo() (interface{}, error) {
	st := s.editor.Status()
	if st.Source == nil {
		return nil, fmt.Errorf("image info: %w", session.ErrNoSource)
	}
	return st.Source, nil
}
