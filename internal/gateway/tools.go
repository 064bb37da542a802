package gateway

// Tool identifies one of the fixed operations exposed to clients. Names are
// only used at the protocol boundary; inside the gateway every switch over
// Tool is exhaustive.
type Tool int

const (
	ReadQuery Tool = iota + 1
	WriteQuery
	CreateTable
	ListTables
	DescribeTable
	AppendInsight
)

// allTools is the catalog order.
var allTools = [...]Tool{ReadQuery, WriteQuery, CreateTable, ListTables, DescribeTable, AppendInsight}

func (t Tool) String() string {
	switch t {
	case ReadQuery:
		return "read_query"
	case WriteQuery:
		return "write_query"
	case CreateTable:
		return "create_table"
	case ListTables:
		return "list_tables"
	case DescribeTable:
		return "describe_table"
	case AppendInsight:
		return "append_insight"
	}
	return "unknown"
}

// ParseTool maps a protocol-level tool name to a Tool.
func ParseTool(name string) (Tool, bool) {
	for _, t := range allTools {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// Argument describes one field of a tool's input.
type Argument struct {
	Name        string
	Description string
	Required    bool
}

// ToolDefinition is the static description of a tool.
type ToolDefinition struct {
	Tool        Tool
	Name        string
	Description string
	Arguments   []Argument
	ReadOnly    bool
}

// InputSchema returns the JSON schema of the tool's arguments. All
// arguments are strings.
func (d ToolDefinition) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Arguments))
	required := []string{}
	for _, a := range d.Arguments {
		props[a.Name] = map[string]string{"type": "string", "description": a.Description}
		if a.Required {
			required = append(required, a.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func definition(t Tool) ToolDefinition {
	d := ToolDefinition{Tool: t, Name: t.String()}
	switch t {
	case ReadQuery:
		d.Description = "Execute a SELECT query on the SQLite database"
		d.Arguments = []Argument{{Name: argQuery, Description: "SELECT SQL query to execute", Required: true}}
		d.ReadOnly = true
	case WriteQuery:
		d.Description = "Execute an INSERT, UPDATE, or DELETE query on the SQLite database"
		d.Arguments = []Argument{{Name: argQuery, Description: "SQL query to execute", Required: true}}
	case CreateTable:
		d.Description = "Create a new table in the SQLite database"
		d.Arguments = []Argument{{Name: argQuery, Description: "CREATE TABLE SQL statement", Required: true}}
	case ListTables:
		d.Description = "List all tables in the SQLite database"
		d.ReadOnly = true
	case DescribeTable:
		d.Description = "Get the schema information for a specific table"
		d.Arguments = []Argument{{Name: argTableName, Description: "Name of the table to describe", Required: true}}
		d.ReadOnly = true
	case AppendInsight:
		d.Description = "Add a business insight to the memo"
		d.Arguments = []Argument{{Name: argInsight, Description: "Business insight discovered from data analysis", Required: true}}
	}
	return d
}

// Definitions returns the six tool definitions in catalog order.
func Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(allTools))
	for _, t := range allTools {
		out = append(out, definition(t))
	}
	return out
}

const (
	argQuery     = "query"
	argTableName = "table_name"
	argInsight   = "insight"
)
