package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Vector Race",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Vector Race - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Cars race on a grid track. Each turn a car may change its velocity by at
most one cell per axis. The first car to cross the finish line wins.

AVAILABLE TOOLS:
- race_instructions: Full rules and coordinate conventions
- list_tracks: List available tracks
- describe_track: Show a track's grid, start positions and finish line
- legal_moves: Legal moves for a car at a position with a velocity
- generate_track: Generate a track around a straight line or an arc
- save_track: Validate and store a track
- start_race: Start a race with bot, optimal or scripted drivers
- race_status: Current state of a race
- list_races: List races
- cancel_race: Stop and forget a race

TIP: Plan a whole velocity sequence with legal_moves, then run it as a
scripted driver in start_race.`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_instructions",
		Description: "Get the complete race rules, coordinate conventions and strategy tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)

	// Tracks
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_tracks",
		Description: "List all available tracks",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListTracks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_track",
		Description: "Show a track's grid (top row first), start positions and finish line",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"track_id": stringProp("Track ID from list_tracks"),
			},
			Required: []string{"track_id"},
		},
	}, c.handleDescribeTrack)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List the legal moves for a car at (x,y) that arrived with velocity (dx,dy)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"track_id": stringProp("Track ID"),
				"x":        intProp("Column of the car, 0 is the left edge"),
				"y":        intProp("Row of the car, 0 is the bottom edge"),
				"dx":       intProp("Current horizontal velocity (default 0)"),
				"dy":       intProp("Current vertical velocity (default 0)"),
			},
			Required: []string{"track_id", "x", "y"},
		},
	}, c.handleLegalMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "generate_track",
		Description: "Generate a track with a corridor around a curve and show it without saving",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"width":          intProp("Track width in cells"),
				"height":         intProp("Track height in cells"),
				"corridor_width": map[string]interface{}{"type": "number", "description": "Corridor width in cells"},
				"curve": map[string]interface{}{
					"type": "object",
					"description": `Centerline. Straight: {"type":"straight","from":{"x":0,"y":3},"to":{"x":10,"y":8}}. ` +
						`Arc: {"type":"arc","center":{"x":11,"y":0},"a":6,"b":16,"start_angle":3.14159,"end_angle":0,"direction":-1}`,
				},
			},
			Required: []string{"width", "height", "corridor_width", "curve"},
		},
	}, c.handleGenerateTrack)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_track",
		Description: "Validate a track and store it under an ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"track_id": stringProp("ID to store the track under (defaults to the track name)"),
				"track": map[string]interface{}{
					"type": "object",
					"description": `Track config: {"name":"loop","layout":["XXXX","X  X"],"start":[{"x":1,"y":0}],"finish":[{"x":2,"y":0}]} ` +
						`or {"name":"bend","generator":{...same fields as generate_track...}}`,
				},
			},
			Required: []string{"track"},
		},
	}, c.handleSaveTrack)

	// Races
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_race",
		Description: "Start a race. Drivers are greedy bots unless they are optimal planners or given a scripted velocity sequence",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"track_id": stringProp("Track ID (defaults to the default track)"),
				"drivers": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"name": map[string]interface{}{"type": "string"},
							"kind": map[string]interface{}{"type": "string", "enum": []string{service.DriverBot, service.DriverOptimal, service.DriverScripted}},
							"velocities": map[string]interface{}{
								"type":        "array",
								"description": `Velocity for each turn, e.g. [{"dx":0,"dy":1},{"dx":0,"dy":2}]`,
							},
							"start": map[string]interface{}{"type": "object", "description": `Start position {"x":2,"y":0}`},
						},
					},
					"description": "Race entrants",
				},
				"turn_limit": intProp("Stop the race after this many turns"),
			},
			Required: []string{"drivers"},
		},
	}, c.handleStartRace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_status",
		Description: "Get the current state of a race",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"race_id": stringProp("Race ID"),
			},
			Required: []string{"race_id"},
		},
	}, c.handleRaceStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_races",
		Description: "List races, oldest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"running", "finished", "failed", "cancelled"},
					"description": "Only list races with this status",
				},
			},
		},
	}, c.handleListRaces)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cancel_race",
		Description: "Stop a race and forget it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"race_id": stringProp("Race ID"),
			},
			Required: []string{"race_id"},
		},
	}, c.handleCancelRace)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument.
func intArg(args map[string]interface{}, name string) (int, bool) {
	v, ok := args[name].(float64)
	return int(v), ok
}

// Tool handlers

func (c *Client) handleListTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Tracks []*service.TrackInfo `json:"tracks"`
	}
	if err := c.apiCall("GET", "/api/tracks", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Tracks:\n\n")
	for _, t := range response.Tracks {
		kind := "layout"
		switch {
		case t.Builtin:
			kind = "built-in"
		case t.Generated:
			kind = "generated"
		}
		fmt.Fprintf(&b, "• %s (%s, %dx%d)\n", t.TrackID, kind, t.Width, t.Height)
		if t.Description != "" {
			fmt.Fprintf(&b, "  %s\n", t.Description)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	trackID, _ := args["track_id"].(string)

	var detail service.TrackDetail
	if err := c.apiCall("GET", "/api/tracks/"+url.PathEscape(trackID), nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTrack(&detail)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	trackID, _ := args["track_id"].(string)

	query := url.Values{}
	for _, name := range []string{"x", "y", "dx", "dy"} {
		if v, ok := intArg(args, name); ok {
			query.Set(name, fmt.Sprint(v))
		}
	}

	var opts engine.Options
	path := fmt.Sprintf("/api/tracks/%s/moves?%s", url.PathEscape(trackID), query.Encode())
	if err := c.apiCall("GET", path, nil, &opts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOptions(&opts)), nil
}

func (c *Client) handleGenerateTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]interface{}{
		"width":          args["width"],
		"height":         args["height"],
		"corridor_width": args["corridor_width"],
		"curve":          args["curve"],
	}

	var detail service.TrackDetail
	if err := c.apiCall("POST", "/api/generate", body, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTrack(&detail)), nil
}

func (c *Client) handleSaveTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	track, ok := args["track"].(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("track must be an object"), nil
	}

	body := make(map[string]interface{}, len(track)+1)
	for k, v := range track {
		body[k] = v
	}
	if trackID, _ := args["track_id"].(string); trackID != "" {
		body["track_id"] = trackID
	}

	var response struct {
		Message string `json:"message"`
		TrackID string `json:"track_id"`
	}
	if err := c.apiCall("POST", "/api/tracks", body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s: %s\n", response.Message, response.TrackID)), nil
}

func (c *Client) handleStartRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]interface{}{
		"drivers": args["drivers"],
	}
	if trackID, _ := args["track_id"].(string); trackID != "" {
		body["track_id"] = trackID
	}
	if limit, ok := intArg(args, "turn_limit"); ok {
		body["turn_limit"] = limit
	}

	var info service.RaceInfo
	if err := c.apiCall("POST", "/api/races", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Started race: %s\nTrack: %s\nUse race_status to follow it.\n\n%s",
		info.ID, info.TrackID, formatRace(&info))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRaceStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	raceID, _ := args["race_id"].(string)

	var info service.RaceInfo
	if err := c.apiCall("GET", "/api/races/"+url.PathEscape(raceID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRace(&info)), nil
}

func (c *Client) handleListRaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path := "/api/races"
	if status, _ := args["status"].(string); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var response struct {
		Count int                 `json:"count"`
		Races []*service.RaceInfo `json:"races"`
	}
	if err := c.apiCall("GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Races (%d):\n", response.Count)
	for _, r := range response.Races {
		fmt.Fprintf(&b, "• %s on %s: %s, turn %d, %d players\n", r.ID, r.TrackID, r.Status, r.Turn, len(r.Players))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleCancelRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	raceID, _ := args["race_id"].(string)

	var response struct {
		Message string `json:"message"`
	}
	if err := c.apiCall("DELETE", "/api/races/"+url.PathEscape(raceID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Vector Race - Complete Instructions

OBJECTIVE:
Be the first car to cross the finish line without hitting a wall.

COORDINATES:
• x grows to the right, y grows upward; (0,0) is the bottom-left cell
• describe_track prints rows top row first, so the last row printed is y=0
• Velocities are written <dx,dy>

GRID LEGEND:
• ' ' (space) - track
• X - wall
• - - finish line
• digits - cars, numbered from 0

MOVEMENT:
• Each turn a car keeps its velocity and may change each component by -1, 0 or +1
• In the console game the nine choices sit on the numeric keypad: 5 keeps the velocity, 8 accelerates up, 2 down, 4 left, 6 right
• A move is legal only if the straight line from the old to the new position stays on the track
• A car with no legal move has crashed and is out of the race
• A car that makes an illegal move is disqualified
• A car standing still with velocity <0,0> is not moving, but that is legal

WINNING:
• All cars move simultaneously; every car that crosses the finish line on the same turn wins
• A race stops when someone wins, when every car is out, or at the turn limit

STRATEGY:
• Speed is easy to gain and hard to lose: braking takes as many turns as accelerating
• Before a corner, make sure the car can stop or turn within the cells left
• Use legal_moves to check a plan turn by turn, then submit it as a scripted driver
• An optimal driver always takes a route with the fewest turns; beat it or tie it

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatTrack(detail *service.TrackDetail) string {
	var b strings.Builder
	name := detail.Name
	if detail.TrackID != "" {
		name = detail.TrackID
	}
	fmt.Fprintf(&b, "Track: %s (%dx%d)\n", name, detail.Width, detail.Height)
	if detail.Description != "" {
		fmt.Fprintf(&b, "%s\n", detail.Description)
	}
	b.WriteString("\n")
	for _, row := range detail.Rows {
		fmt.Fprintf(&b, "|%s|\n", row)
	}
	b.WriteString("\nStart positions:")
	for _, p := range detail.Start {
		fmt.Fprintf(&b, " %s", p)
	}
	b.WriteString("\nFinish line:")
	for _, p := range detail.Finish {
		fmt.Fprintf(&b, " %s", p)
	}
	b.WriteString("\n")
	return b.String()
}

func formatOptions(opts *engine.Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Keeping the velocity leads to %s\n", opts.DefaultMove.End)
	if len(opts.PossibleMoves) == 0 {
		b.WriteString("No legal moves: the car will crash.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Legal moves (%d):\n", len(opts.PossibleMoves))
	for _, m := range opts.PossibleMoves {
		fmt.Fprintf(&b, "• velocity %s -> %s\n", m.Velocity, m.End)
	}
	return b.String()
}

func formatRace(info *service.RaceInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Race %s: %s, turn %d\n", info.ID, info.Status, info.Turn)
	if info.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", info.Error)
	}
	if len(info.Winners) > 0 {
		fmt.Fprintf(&b, "Winners: %v\n", info.Winners)
	}
	for _, p := range info.Players {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("player %d", p.PlayerNo)
		}
		fmt.Fprintf(&b, "• %d %s: %s at %s, velocity %s", p.PlayerNo, name, p.Status(), p.Move.End, p.Move.Velocity)
		switch {
		case p.DSQ != "":
			fmt.Fprintf(&b, " (%s)", p.DSQ)
		case p.DNF != "":
			fmt.Fprintf(&b, " (%s)", p.DNF)
		}
		b.WriteString("\n")
	}
	if len(info.Rows) > 0 {
		b.WriteString("\n")
		for _, row := range info.Rows {
			fmt.Fprintf(&b, "|%s|\n", row)
		}
	}
	return b.String()
}
