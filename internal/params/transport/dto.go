package transport

// SetParameterRequest creates or updates a parameter.
type SetParameterRequest struct {
	Key         string  `json:"key" validate:"required,min=1,max=128"`
	Value       string  `json:"value" validate:"required,max=1024"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=512"`
}

// ParameterResponse is a parameter as returned by the API.
type ParameterResponse struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description *string `json:"description,omitempty"`
}
