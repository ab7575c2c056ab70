package arena

import "errors"

var (
	ErrEpisodeEnded  = errors.New("episode already ended")
	ErrInvalidAction = errors.New("invalid action")
)
