package server

// RequestBaikeToolName is the name of the request_baike tool.
const RequestBaikeToolName = "request_baike"

// RenderBaikePromptName is the name of the render_baike_to_html prompt.
const RenderBaikePromptName = "render_baike_to_html"

// URLArgument is the argument name shared by the tool and the prompt.
const URLArgument = "url"

// RequestBaikeParams defines the parameters for the request_baike tool.
type RequestBaikeParams struct {
	URL string `json:"url" jsonschema:"Baidu Baike URL or lemma id, for example https://baike.baidu.com/item/DeepSeek/65258669"`
}
