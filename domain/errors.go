package domain

// ValidationError indicates a mutation payload violated a field rule. The
// message is part of the wire contract and is sent to the client verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError indicates a mutation referenced an id absent from the board.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return "Task not found" }
