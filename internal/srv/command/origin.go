package command

import (
	"github.com/google/uuid"
)

type Source string

const (
	BUTTON_SOURCE    Source = "button"
	WEB_SOURCE       Source = "web"
	SCHEDULER_SOURCE Source = "scheduler"
	SHELL_SOURCE     Source = "shell"
	FILE_SOURCE      Source = "file"
	RUNTIME_SOURCE   Source = "runtime"
)

// Origin tells which producer issued a command, so that its result can be routed back
type Origin struct {
	Source    Source
	RequestId uuid.UUID
}

func NewOrigin(source Source) Origin {
	return Origin{Source: source, RequestId: uuid.New()}
}

func (o Origin) String() string {
	return string(o.Source) + "/" + o.RequestId.String()
}
