//go:build unix

package main

import (
	"strconv"
	"sync"
	"unicode"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/funny-falcon/allocstr/alloc"
	"github.com/funny-falcon/allocstr/intern"
	"github.com/funny-falcon/allocstr/utf8buf"
)

var jsonConfig = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Server applies one buffer operation to each request body and keeps a
// table of interned strings.
type Server struct {
	Alloc  alloc.Allocator
	Arena  *alloc.Arena
	Config utf8buf.Config
	Log    *zap.Logger

	namesMu sync.Mutex
	Names   *intern.Table
}

type argError string

func (e argError) Error() string { return string(e) }

func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/edit":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.edit(ctx)
	case "/intern":
		switch {
		case ctx.IsPost():
			s.internPut(ctx)
		case ctx.IsGet():
			s.internGet(ctx)
		default:
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		}
	case "/stats":
		s.stats(ctx)
	default:
		ctx.NotFound()
	}
}

func intArg(args *fasthttp.Args, name string) (int, error) {
	v := args.Peek(name)
	if len(v) == 0 {
		return 0, argError("missing argument " + name)
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, argError("bad argument " + name)
	}
	return n, nil
}

func (s *Server) edit(ctx *fasthttp.RequestCtx) {
	b, err := s.Config.FromUTF8In(ctx.PostBody(), s.Alloc)
	if err != nil {
		s.fail(ctx, "", err)
		return
	}
	defer b.Release()

	args := ctx.QueryArgs()
	op := string(args.Peek("op"))
	removed, err := apply(b, op, args)
	if err != nil {
		s.fail(ctx, op, err)
		return
	}
	s.Log.Debug("edit",
		zap.String("op", op),
		zap.Int("len", b.Len()),
		zap.Int("cap", b.Cap()))

	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteObjectStart()
	stream.WriteObjectField("text")
	stream.WriteString(b.Str())
	stream.WriteMore()
	stream.WriteObjectField("len")
	stream.WriteInt(b.Len())
	stream.WriteMore()
	stream.WriteObjectField("cap")
	stream.WriteInt(b.Cap())
	if removed != nil {
		stream.WriteMore()
		stream.WriteObjectField("removed")
		stream.WriteString(removed.Str())
		removed.Release()
	}
	stream.WriteObjectEnd()
	ctx.SetContentType("application/json")
	ctx.SetBody(stream.Buffer())
}

// apply runs op on b. Operations that take text out of b return it in a
// buffer over the same allocator.
func apply(b *utf8buf.Buffer, op string, args *fasthttp.Args) (*utf8buf.Buffer, error) {
	switch op {
	case "", "validate":
		return nil, nil
	case "push":
		return nil, b.PushStr(string(args.Peek("s")))
	case "insert":
		at, err := intArg(args, "at")
		if err != nil {
			return nil, err
		}
		return nil, b.InsertStr(at, string(args.Peek("s")))
	case "remove":
		at, err := intArg(args, "at")
		if err != nil {
			return nil, err
		}
		r, err := b.Remove(at)
		if err != nil {
			return nil, err
		}
		removed := utf8buf.NewIn(b.Allocator())
		if err := removed.Push(r); err != nil {
			return nil, err
		}
		return removed, nil
	case "truncate":
		at, err := intArg(args, "at")
		if err != nil {
			return nil, err
		}
		return nil, b.Truncate(at)
	case "drain":
		from, err := intArg(args, "from")
		if err != nil {
			return nil, err
		}
		to, err := intArg(args, "to")
		if err != nil {
			return nil, err
		}
		d, err := b.Drain(from, to)
		if err != nil {
			return nil, err
		}
		removed := utf8buf.NewIn(b.Allocator())
		for r := range d.All() {
			if err := removed.Push(r); err != nil {
				removed.Release()
				return nil, err
			}
		}
		return removed, nil
	case "replace":
		from, err := intArg(args, "from")
		if err != nil {
			return nil, err
		}
		to, err := intArg(args, "to")
		if err != nil {
			return nil, err
		}
		return nil, b.ReplaceRange(from, to, string(args.Peek("s")))
	case "retain-alpha":
		b.Retain(unicode.IsLetter)
		return nil, nil
	case "shrink":
		return nil, b.TryShrinkToFit()
	}
	return nil, argError("unknown op " + strconv.Quote(op))
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, op string, err error) {
	status := fasthttp.StatusBadRequest
	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteObjectStart()
	stream.WriteObjectField("error")

	var be *utf8buf.Error
	if errors.As(err, &be) {
		if be.Kind == utf8buf.KindOutOfMemory {
			status = fasthttp.StatusInsufficientStorage
		}
		stream.WriteString(be.Kind.String())
		stream.WriteMore()
		stream.WriteObjectField("op")
		stream.WriteString(be.Op)
		switch be.Kind {
		case utf8buf.KindInvalidUTF8:
			stream.WriteMore()
			stream.WriteObjectField("valid_up_to")
			stream.WriteInt(be.ValidUpTo)
		case utf8buf.KindNotCharBoundary, utf8buf.KindOutOfBounds:
			stream.WriteMore()
			stream.WriteObjectField("index")
			stream.WriteInt(be.Index)
		}
	} else {
		stream.WriteString(err.Error())
	}
	stream.WriteObjectEnd()

	s.Log.Info("edit failed", zap.String("op", op), zap.Error(err))
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(stream.Buffer())
}

func (s *Server) internPut(ctx *fasthttp.RequestCtx) {
	if s.Names == nil {
		ctx.Error("no intern table", fasthttp.StatusNotFound)
		return
	}
	s.namesMu.Lock()
	id, isNew, err := s.Names.Insert(string(ctx.PostBody()))
	s.namesMu.Unlock()
	if err != nil {
		s.fail(ctx, "intern", err)
		return
	}

	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteObjectStart()
	stream.WriteObjectField("id")
	stream.WriteUint32(id)
	stream.WriteMore()
	stream.WriteObjectField("new")
	stream.WriteBool(isNew)
	stream.WriteObjectEnd()
	ctx.SetContentType("application/json")
	ctx.SetBody(stream.Buffer())
}

func (s *Server) internGet(ctx *fasthttp.RequestCtx) {
	if s.Names == nil {
		ctx.Error("no intern table", fasthttp.StatusNotFound)
		return
	}
	id, err := intArg(ctx.QueryArgs(), "id")
	if err != nil {
		s.fail(ctx, "intern", err)
		return
	}
	s.namesMu.Lock()
	known := id >= 0 && id <= s.Names.Len()
	var text string
	if known {
		// stored regions stay in place until Release
		text = s.Names.Get(uint32(id))
	}
	s.namesMu.Unlock()
	if !known {
		ctx.NotFound()
		return
	}

	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteObjectStart()
	stream.WriteObjectField("id")
	stream.WriteInt(id)
	stream.WriteMore()
	stream.WriteObjectField("text")
	stream.WriteString(text)
	stream.WriteObjectEnd()
	ctx.SetContentType("application/json")
	ctx.SetBody(stream.Buffer())
}

func (s *Server) stats(ctx *fasthttp.RequestCtx) {
	if s.Arena == nil {
		ctx.Error("no arena", fasthttp.StatusNotFound)
		return
	}
	st := s.Arena.Stats()
	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteObjectStart()
	stream.WriteObjectField("live")
	stream.WriteInt(st.Live)
	stream.WriteMore()
	stream.WriteObjectField("large")
	stream.WriteInt(st.Large)
	stream.WriteMore()
	stream.WriteObjectField("mapped")
	stream.WriteInt(st.Mapped)
	stream.WriteMore()
	stream.WriteObjectField("mapped_human")
	stream.WriteString(humanize.IBytes(uint64(st.Mapped)))
	stream.WriteMore()
	stream.WriteObjectField("chunks")
	stream.WriteInt(st.Chunks)
	stream.WriteMore()
	stream.WriteObjectField("free_chunks")
	stream.WriteInt(st.FreeChunks)
	if s.Names != nil {
		s.namesMu.Lock()
		n, size := s.Names.Len(), s.Names.Bytes()
		s.namesMu.Unlock()
		stream.WriteMore()
		stream.WriteObjectField("interned")
		stream.WriteInt(n)
		stream.WriteMore()
		stream.WriteObjectField("interned_bytes")
		stream.WriteInt(size)
	}
	stream.WriteObjectEnd()
	ctx.SetContentType("application/json")
	ctx.SetBody(stream.Buffer())
}
