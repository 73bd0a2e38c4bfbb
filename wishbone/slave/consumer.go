package slave

import "github.com/sarchlab/wbsim/wishbone"

// A ResultConsumer receives the results of every cycle a responder saw, in
// request order.
type ResultConsumer interface {
	ConsumeCycle(results []wishbone.Result)
}

// ResultConsumerFunc adapts a function to the ResultConsumer interface.
type ResultConsumerFunc func(results []wishbone.Result)

// ConsumeCycle calls f.
func (f ResultConsumerFunc) ConsumeCycle(results []wishbone.Result) {
	f(results)
}
