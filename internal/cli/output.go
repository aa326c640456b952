package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Result is the envelope of every --json response.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// emit writes data as JSON in --json mode and calls textFn otherwise.
func (a *app) emit(data interface{}, textFn func(w io.Writer)) error {
	if a.json {
		out, err := json.MarshalIndent(Result{Success: true, Data: data}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, string(out))
		return err
	}
	textFn(a.out)
	return nil
}

func printError(w io.Writer, asJSON bool, err error) {
	if asJSON {
		out, _ := json.MarshalIndent(Result{Success: false, Error: err.Error()}, "", "  ")
		fmt.Fprintln(w, string(out))
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
