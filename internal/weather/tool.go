package weather

import (
	"context"

	"weatherplugin/internal/types"
)

// ToolName is the function name the agent calls.
const ToolName = "get_weather"

const toolDescription = "获取某个地点的天气信息。当用户询问与天气相关的问题（例如'今天的天气怎么样？'、'明天会下雨吗？'、'广州天气如何？'等），" +
	"或对话中包含'天气'字眼时，调用此功能。用户可以提供具体位置（如城市名），" +
	"如果未提供位置，则自动获取用户当前位置查询天气。" +
	"如果用户说的是省份，默认用省会城市。如果用户说的不是省份或城市而是一个地名，" +
	"默认用该地所在省份的省会城市。" +
	"当IP解析失败会使用默认地址"

// ToolDescriptor is the function-calling declaration handed to the model.
type ToolDescriptor struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  ToolSchema `json:"parameters"`
}

type ToolSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]ToolSchemaProp `json:"properties"`
	Required   []string                  `json:"required"`
}

type ToolSchemaProp struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Descriptor returns the get_weather declaration. Each call returns a fresh
// value.
func Descriptor() ToolDescriptor {
	return ToolDescriptor{
		Type: "function",
		Function: ToolFunction{
			Name:        ToolName,
			Description: toolDescription,
			Parameters: ToolSchema{
				Type: "object",
				Properties: map[string]ToolSchemaProp{
					"location": {
						Type:        "string",
						Description: "地点名，例如杭州。可选参数，如果不提供则不传",
					},
					"lang": {
						Type:        "string",
						Description: "返回用户使用的语言code，例如zh_CN/zh_HK/en_US/ja_JP等，默认zh_CN",
					},
				},
				Required: []string{"lang"},
			},
		},
	}
}

// ToolCall is the argument object the agent sends with a get_weather call.
// ClientIP is supplied by the transport, not the model.
type ToolCall struct {
	Location string `json:"location,omitempty" validate:"location_text"`
	Lang     string `json:"lang,omitempty" validate:"lang_code"`
	ClientIP string `json:"client_ip,omitempty" validate:"ip_addr"`
}

// Runner executes a weather query.
type Runner interface {
	Run(ctx context.Context, q Query) types.Outcome
}

// Tool binds a Runner to the plugin settings, turning ToolCalls into Queries.
type Tool struct {
	runner          Runner
	apiKey          types.SecretString
	defaultLocation string
}

// NewTool creates a Tool.
func NewTool(runner Runner, apiKey types.SecretString, defaultLocation string) *Tool {
	return &Tool{runner: runner, apiKey: apiKey, defaultLocation: defaultLocation}
}

// Call runs call. When call carries no ClientIP, the caller address stored in
// ctx is used instead.
func (t *Tool) Call(ctx context.Context, call ToolCall) types.Outcome {
	addr := call.ClientIP
	if addr == "" {
		addr = types.GetClientAddr(ctx)
	}
	return t.runner.Run(ctx, Query{
		Location:        call.Location,
		Lang:            call.Lang,
		APIKey:          t.apiKey,
		DefaultLocation: t.defaultLocation,
		ClientAddr:      addr,
	})
}
