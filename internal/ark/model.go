package ark

// imageGenerationRequest is the wire format of the Ark images-generation
// endpoint. Reference images ride in the "image" field as data-URI strings.
type imageGenerationRequest struct {
	Model                            string                            `json:"model"`
	Prompt                           string                            `json:"prompt"`
	Size                             string                            `json:"size,omitempty"`
	ResponseFormat                   string                            `json:"response_format,omitempty"`
	Watermark                        bool                              `json:"watermark"`
	Image                            []string                          `json:"image,omitempty"`
	SequentialImageGeneration        string                            `json:"sequential_image_generation,omitempty"`
	SequentialImageGenerationOptions *sequentialImageGenerationOptions `json:"sequential_image_generation_options,omitempty"`
}

// sequentialImageGenerationOptions carries the effective target count. It is
// always present on outgoing requests so fixed-count and auto modes share one
// code path.
type sequentialImageGenerationOptions struct {
	MaxImages int `json:"max_images,omitempty"`
}

type imageGenerationResponse struct {
	Data  []imageDataItem `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type imageDataItem struct {
	URL  string `json:"url"`
	Size string `json:"size,omitempty"`
}

type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
