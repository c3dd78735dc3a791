package segment

import "fmt"

func ExampleGenerator_FirstLast() {
	g, _ := New(10, 4, 0)
	for first, last := range g.FirstLast() {
		fmt.Println(first, last)
	}
	// Output:
	// 0 4
	// 4 8
	// 8 10
}
