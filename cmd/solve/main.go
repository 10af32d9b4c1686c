// Command solve wires the refinement driver end to end on a small built-in
// problem and prints the exact result. It stands in for the external CLI
// (which, like the file readers, lives outside this module): the LP here is
// constructed programmatically rather than parsed.
package main

import (
	"fmt"
	"os"

	"simplexcore/lp"
	"simplexcore/rational"
	"simplexcore/refine"
)

func main() {
	// minimize x1 + x2
	// s.t. x1 + 2 x2 >= 3
	//      2 x1 + x2 >= 3
	//      x1, x2 >= 0
	l := lp.New(2, lp.Minimize, lp.DefaultParams())
	l.SetRow(0, rational.FromInt64(3), rational.Zero, true, false)
	l.SetRow(1, rational.FromInt64(3), rational.Zero, true, false)
	l.AddCol(lp.RatColumn{
		{Row: 0, Val: rational.FromInt64(1)},
		{Row: 1, Val: rational.FromInt64(2)},
	}, rational.Zero, rational.Zero, rational.FromInt64(1), true, false)
	l.AddCol(lp.RatColumn{
		{Row: 0, Val: rational.FromInt64(2)},
		{Row: 1, Val: rational.FromInt64(1)},
	}, rational.Zero, rational.Zero, rational.FromInt64(1), true, false)

	d := refine.New(l)
	d.Log = refine.PrintfLogger{W: os.Stdout}
	sol, status := d.Solve()

	fmt.Printf("status      = %v\n", status)
	fmt.Printf("objective   = %v\n", sol.ObjValue)
	for j, v := range sol.Primal {
		fmt.Printf("x[%d]        = %v\n", j, v)
	}
	for i, v := range sol.Dual {
		fmt.Printf("y[%d]        = %v\n", i, v)
	}
	fmt.Printf("refinements = %d, simplex iterations = %d\n", d.Refinements(), d.Iterations())
}
