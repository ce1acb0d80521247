package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-lambda-go/lambda"

	val "github.com/vaxwatch/availability-loader"
)

// AWS Lambda wrapper

type LoadEvent struct {
	Name string `json:"name"`
}

var panicError error = nil

func RunWithPanicTrap() {
	//trap any panic calls and set the 'panicError' global variable
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				panicError = err
			} else if str, ok := r.(string); ok {
				panicError = errors.New(str)
			} else {
				panicError = fmt.Errorf("%v", r)
			}
		}
	}()

	args := []string{"availability-loader-lambda", "once"}
	val.Run(args)
}

func HandleRequest(ctx context.Context, evt LoadEvent) (string, error) {
	RunWithPanicTrap()

	if panicError != nil {
		err := panicError
		panicError = nil
		return fmt.Sprintf("Execution finished with error: %s!", evt.Name), err
	} else {
		return fmt.Sprintf("Execution finished: %s!", evt.Name), nil
	}
}

func main() {
	lambda.Start(HandleRequest)
}
