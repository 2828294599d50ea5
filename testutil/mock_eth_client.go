package testutil

import (
	"encoding/json"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// MockEthClient satisfies store.Caller with canned responses, in
// registration order per method. A Responder can derive the response
// from the call arguments (used to echo broadcast hashes the way a node
// would).
type MockEthClient struct {
	mu        sync.Mutex
	responses []mockResponse
}

type Responder func(args []interface{}) interface{}

type mockResponse struct {
	method   string
	response interface{}
	errMsg   string
	used     bool
}

func (mock *MockEthClient) Register(method string, response interface{}) {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	mock.responses = append(mock.responses, mockResponse{method: method, response: response})
}

func (mock *MockEthClient) RegisterError(method string, errMsg string) {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	mock.responses = append(mock.responses, mockResponse{method: method, errMsg: errMsg})
}

// AllCalled reports whether every registered response was consumed.
func (mock *MockEthClient) AllCalled() bool {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	for _, response := range mock.responses {
		if !response.used {
			return false
		}
	}
	return true
}

func (mock *MockEthClient) Call(result interface{}, method string, args ...interface{}) error {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	for i := range mock.responses {
		if mock.responses[i].used || mock.responses[i].method != method {
			continue
		}
		mock.responses[i].used = true
		if mock.responses[i].errMsg != "" {
			return errors.New(mock.responses[i].errMsg)
		}
		response := mock.responses[i].response
		if responder, ok := response.(Responder); ok {
			response = responder(args)
		}
		return assign(result, response)
	}
	return errors.Errorf("no response registered for %s", method)
}

func assign(result interface{}, response interface{}) error {
	target := reflect.ValueOf(result).Elem()
	source := reflect.ValueOf(response)
	if source.IsValid() && source.Type().AssignableTo(target.Type()) {
		target.Set(source)
		return nil
	}
	b, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}
