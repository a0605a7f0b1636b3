package serverutils

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func OK[T any](data T) BaseResponse[T] {
	return BaseResponse[T]{Success: true, Data: data}
}

func Fail(message string) BaseResponse[any] {
	return BaseResponse[any]{Success: false, Message: message}
}
