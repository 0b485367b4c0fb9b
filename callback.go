package seatsanalyzer

import "fmt"

// Inferencer replaces the numeric inference step of a pipeline stage.
//
// Infer receives the pre-processed network input and an output buffer of
// exactly the size declared in Config. It must fill output and return
// without keeping input or output: both are invalid once Infer returns.
// The pipeline waits for Infer, so it must not block indefinitely.
type Inferencer interface {
	Infer(input *Image, output []byte) error
}

// InferenceFunc adapts a function to Inferencer.
type InferenceFunc func(input *Image, output []byte) error

// Infer calls f.
func (f InferenceFunc) Infer(input *Image, output []byte) error {
	return f(input, output)
}

// RunInference calls inf and turns a panic into an error, so a faulty
// callback fails the current call instead of the process. Modules use it
// for every callback invocation.
func RunInference(inf Inferencer, input *Image, output []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inference callback panicked: %v", r)
		}
	}()
	return inf.Infer(input, output)
}
