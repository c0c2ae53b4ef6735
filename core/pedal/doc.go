// Package pedal turns device input into the normalized throttle and brake
// positions consumed by the dynamics integrator.
//
// Every input backend implements Source. Digital devices such as keyboards
// report a model.PedalCommand which Ramp converts to analog travel; Script
// replays timed pedal phases; FirstActive merges several devices by
// priority. None of these know about terminals, windows or gamepads.
package pedal
