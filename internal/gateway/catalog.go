package gateway

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// MemoURI addresses the insight memo resource.
	MemoURI = "memo://insights"
	// MemoTemplate matches every memo:// URI so that unknown paths reach
	// ReadResource.
	MemoTemplate = "memo://{+path}"

	memoScheme = "memo"
	memoPath   = "insights"

	// DemoPrompt is the name of the guided analysis prompt.
	DemoPrompt = "mcp-demo"

	argTopic = "topic"
)

// ResourceDefinition describes a readable resource.
type ResourceDefinition struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
}

// PromptArgument is a named prompt parameter.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptDefinition describes a prompt template.
type PromptDefinition struct {
	Name        string
	Description string
	Arguments   []PromptArgument
}

// PromptMessage is one message of a rendered prompt.
type PromptMessage struct {
	Role string
	Text string
}

// PromptResult is a rendered prompt.
type PromptResult struct {
	Description string
	Messages    []PromptMessage
}

var memoResource = ResourceDefinition{
	URI:         MemoURI,
	Name:        "Business Insights Memo",
	Description: "A living document of discovered business insights",
	MIMEType:    "text/plain",
}

var demoPrompt = PromptDefinition{
	Name:        DemoPrompt,
	Description: "A prompt to seed the database with initial data and demonstrate what you can do with an SQLite MCP Server",
	Arguments: []PromptArgument{{
		Name:        argTopic,
		Description: "Topic to seed the database with initial data",
		Required:    true,
	}},
}

// Resources lists the readable resources: only the memo.
func (g *Gateway) Resources() []ResourceDefinition {
	return []ResourceDefinition{memoResource}
}

// ReadResource returns the content at uri.
func (g *Gateway) ReadResource(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", &DispatchError{Kind: UnsupportedScheme, Msg: fmt.Sprintf("Unsupported URI scheme: %s", uri)}
	}
	if u.Scheme != memoScheme {
		return "", &DispatchError{Kind: UnsupportedScheme, Msg: fmt.Sprintf("Unsupported URI scheme: %s", u.Scheme)}
	}
	path := u.Host + u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	if path != memoPath {
		return "", &DispatchError{Kind: UnknownResourcePath, Msg: fmt.Sprintf("Unknown resource path: %s", path)}
	}
	return g.insights.Render(), nil
}

// Prompts lists the prompt templates: only the demo.
func (g *Gateway) Prompts() []PromptDefinition {
	return []PromptDefinition{demoPrompt}
}

// GetPrompt renders the prompt called name.
func (g *Gateway) GetPrompt(name string, args map[string]string) (*PromptResult, error) {
	if name != DemoPrompt {
		return nil, &DispatchError{Kind: UnknownPrompt, Msg: fmt.Sprintf("Unknown prompt: %s", name)}
	}
	topic, ok := args[argTopic]
	if !ok {
		return nil, &ValidationError{Msg: "Missing required argument: topic"}
	}
	return &PromptResult{
		Description: fmt.Sprintf("Demo template for %s", topic),
		Messages: []PromptMessage{{
			Role: "user",
			Text: strings.ReplaceAll(demoTemplate, "{topic}", topic),
		}},
	}, nil
}
