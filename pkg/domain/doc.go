/*
Package domain contains the core domain models of the leadflow wizard.

It defines the fundamental entities of the lead-capture flow: the ordered
Steps, the per-session State, the Answer sum type, the authentication gate
state and the Commands a host dispatches to the engine. This package is kept
pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Step: one screen of the wizard (choice question, amount question or auth gate).
  - Answer: the value recorded for a question step (Fixed, Other or Amount).
  - AuthState: the phase and drafts of the name + mobile + OTP gate.
  - State: the runtime snapshot of a session (Position, Answers, Auth, History).
  - Command: a requested transition, produced by a front-end and applied by the engine.
  - View: a structural representation of what the host should render.
*/
package domain
