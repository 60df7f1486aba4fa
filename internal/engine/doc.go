// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine drives one streamed question/answer exchange end to
// end.
//
// A Send appends the user's message, opens the stream against the
// answering service, folds incoming frames into an accumulator while
// surfacing progress events, and commits exactly one outcome to the
// session store: the completed answer, the partial answer on
// cancellation (when any content arrived), or a fixed apology on
// failure. At most one exchange is in flight per Engine; a second Send
// is rejected with ErrBusy while the first is live.
package engine
