package tests

import "fmt"

// Exception is the value test bodies panic with. The runtime prints it as
// "panic: <Name>: <Message>" when nobody recovers it.
type Exception struct {
	Name    string
	Message string
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func wild(msg string) *Exception {
	return &Exception{Name: "WildException", Message: msg}
}

func tame(msg string) *Exception {
	return &Exception{Name: "TameException", Message: msg}
}

// try runs body and hands a recovered *Exception to catch. finally always
// runs. Anything that is not an *Exception keeps propagating.
func try(body func(), catch func(*Exception), finally func()) {
	if finally != nil {
		defer finally()
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		e, ok := r.(*Exception)
		if !ok || catch == nil {
			panic(r)
		}
		catch(e)
	}()
	body()
}
