package gesture

import "time"

const (
	defaultThrottle   = 10 * time.Millisecond
	defaultWheelQuiet = 200 * time.Millisecond
	defaultPace       = 1.2
	defaultClickTime  = 150 * time.Millisecond
)

// Option configures Navigation, Pinch and Click.
type Option func(*options)

type options struct {
	throttle time.Duration
	quiet    time.Duration
	ignore   IgnoreFunc
	pace     float64
	click    time.Duration
}

func defaultOptions() options {
	return options{
		throttle: defaultThrottle,
		quiet:    defaultWheelQuiet,
		pace:     defaultPace,
		click:    defaultClickTime,
	}
}

// WithThrottle sets the minimum interval between two applied moves.
func WithThrottle(d time.Duration) Option {
	return func(o *options) { o.throttle = d }
}

// WithWheelQuiet sets how long after the last wheel tick a wheel session ends.
func WithWheelQuiet(d time.Duration) Option {
	return func(o *options) { o.quiet = d }
}

// WithIgnore skips sessions starting on elements for which f is true.
func WithIgnore(f IgnoreFunc) Option {
	return func(o *options) { o.ignore = f }
}

// WithPace sets the finger distance ratio that changes the zoom by one.
func WithPace(p float64) Option {
	return func(o *options) {
		if p > 1 {
			o.pace = p
		}
	}
}

// WithClickTime sets the longest press reported as a click.
func WithClickTime(d time.Duration) Option {
	return func(o *options) { o.click = d }
}

func (o options) ignored(e Element) bool {
	return o.ignore != nil && e != nil && o.ignore(e)
}
