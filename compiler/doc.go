/*
Package compiler drives the ARM32 JIT backend.

Process of lowering

IR Text ->
	parse (ir) ->
Statements ->
	select backend (platform) ->
	lower (back) ->
Machine Code + Relocations (objfile) ->
	link ->
Resolved Code ->
	place (jitmem) ->
Executable Memory

*/
package compiler
