package enums

type SwipeDirection string

const (
	SwipeLike SwipeDirection = "LIKE"
	SwipeSkip SwipeDirection = "SKIP"
)

func (d SwipeDirection) Valid() bool {
	switch d {
	case SwipeLike, SwipeSkip:
		return true
	default:
		return false
	}
}
