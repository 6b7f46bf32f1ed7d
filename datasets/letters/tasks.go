package letters

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/openfluke/seqnet/nn"
	"github.com/openfluke/seqnet/trainer"
)

const (
	// HiddenSize is the middle layer and recurrent state width of every task model
	HiddenSize = 16
	// MaxWordLength bounds the words drawn by WordTask and TagTask
	MaxWordLength = 10
	// TagLength is the number of elements TagTask emits per word
	TagLength = 4
	// EndMarker closes every TagTask output sequence
	EndMarker Language = '.'
)

// initLayer draws uniform weights in the Xavier range of l
func initLayer(l *nn.Layer, rng *rand.Rand) *nn.Layer {
	limit := math32.Sqrt(6 / float32(l.InputSize()+l.OutputSize()))
	nn.Randomize(l, rng, limit)
	return l
}

// LetterTask trains copies of a Classifier to name the language of one letter
type LetterTask struct {
	workers []*letterWorker
}

type letterWorker struct {
	model  *nn.TrainableClassifier
	cache  *nn.ClassifierCache
	input  nn.Vector
	target nn.Vector
	err    nn.Vector
}

// NewLetterTask builds workers identical copies of a RuneWidth → HiddenSize → MarkerWidth classifier
func NewLetterTask(workers int, rng *rand.Rand) *LetterTask {
	base := nn.ComposeClassifier(
		initLayer(nn.NewLayer(RuneWidth, HiddenSize, nn.ActivationReLU, false), rng),
		initLayer(nn.NewLayer(HiddenSize, MarkerWidth, nn.ActivationSoftSign, false), rng),
	)
	t := &LetterTask{}
	for w := 0; w < workers; w++ {
		c := base
		if w > 0 {
			c = nn.NewClassifier(RuneWidth, HiddenSize, MarkerWidth, nn.ActivationSoftSign)
			nn.CopyWeights(c, base)
		}
		t.workers = append(t.workers, &letterWorker{
			model:  nn.NewTrainableClassifier(c),
			cache:  nn.NewClassifierCache(c),
			input:  nn.NewVector(RuneWidth),
			target: nn.NewVector(MarkerWidth),
			err:    nn.NewVector(MarkerWidth),
		})
	}
	return t
}

// Models returns the trainable copies, one per worker
func (t *LetterTask) Models() []trainer.Model {
	out := make([]trainer.Model, len(t.workers))
	for i, w := range t.workers {
		out[i] = w.model
	}
	return out
}

// Sample studies one random letter on worker's copy
func (t *LetterTask) Sample(worker int, rng *rand.Rand) float32 {
	w := t.workers[worker]
	lang := RandomLanguage(rng)
	EncodeRune(w.input, Letter(rng, lang))
	lang.Marker(w.target)

	out := w.model.Ready(w.input, w.cache)
	loss := nn.SquaredError(w.err, out, w.target)
	w.model.Study(w.err, w.cache)
	return loss
}

// Classifier returns the trained classifier
func (t *LetterTask) Classifier() *nn.Classifier {
	return t.workers[0].model.Classifier()
}

// Classify names the language of r
func (t *LetterTask) Classify(r rune) Language {
	return DecodeMarker(t.Classifier().Calc(EncodeRune(nn.NewVector(RuneWidth), r)))
}

// WordTask trains copies of an Encoder to name the language of a word
type WordTask struct {
	workers []*wordWorker
}

type wordWorker struct {
	model  *nn.TrainableEncoder
	cache  *nn.EncoderCache
	inputs []nn.Vector
	target nn.Vector
	err    nn.Vector
}

// NewWordTask builds workers identical copies of an encoder reading RuneWidth
// letters into a HiddenSize state and answering with a MarkerWidth label
func NewWordTask(workers int, rng *rand.Rand) *WordTask {
	base := nn.ComposeEncoder(
		nn.InitRecurrentCell(RuneWidth, HiddenSize, rng),
		initLayer(nn.NewLayer(HiddenSize, MarkerWidth, nn.ActivationSoftSign, false), rng),
	)
	t := &WordTask{}
	for w := 0; w < workers; w++ {
		e := base
		if w > 0 {
			e = nn.NewEncoder(RuneWidth, HiddenSize, MarkerWidth, nn.ActivationSoftSign)
			nn.CopyWeights(e, base)
		}
		t.workers = append(t.workers, &wordWorker{
			model:  nn.NewTrainableEncoder(e),
			cache:  nn.NewEncoderCache(e, MaxWordLength),
			inputs: EncodeWord(make([]rune, MaxWordLength)),
			target: nn.NewVector(MarkerWidth),
			err:    nn.NewVector(MarkerWidth),
		})
	}
	return t
}

// Models returns the trainable copies, one per worker
func (t *WordTask) Models() []trainer.Model {
	out := make([]trainer.Model, len(t.workers))
	for i, w := range t.workers {
		out[i] = w.model
	}
	return out
}

// Sample studies one random word of 1 to MaxWordLength letters on worker's copy
func (t *WordTask) Sample(worker int, rng *rand.Rand) float32 {
	w := t.workers[worker]
	lang := RandomLanguage(rng)
	word := Word(rng, lang, 1, MaxWordLength)
	for i, r := range word {
		EncodeRune(w.inputs[i], r)
	}
	lang.Marker(w.target)

	out := w.model.Ready(w.inputs[:len(word)], nil, w.cache)
	loss := nn.SquaredError(w.err, out, w.target)
	w.model.Study(w.err, w.cache)
	return loss
}

// Encoder returns the trained encoder
func (t *WordTask) Encoder() *nn.Encoder {
	return t.workers[0].model.Encoder()
}

// Classify names the language of a non-empty word
func (t *WordTask) Classify(word []rune) Language {
	return DecodeMarker(t.Encoder().Calc(EncodeWord(word), nil))
}

// TagTask trains copies of a SeqToSeq to answer a word with its language
// marker repeated TagLength-1 times followed by EndMarker
type TagTask struct {
	workers []*tagWorker
}

type tagWorker struct {
	model   *nn.TrainableSeqToSeq
	cache   *nn.SeqToSeqCache
	inputs  []nn.Vector
	targets []nn.Vector
	errs    []nn.Vector
}

// NewTagTask builds workers identical copies of a RuneWidth → HiddenSize → MarkerWidth sequence model
func NewTagTask(workers int, rng *rand.Rand) *TagTask {
	base := nn.ComposeSeqToSeq(
		nn.InitRecurrentCell(RuneWidth, HiddenSize, rng),
		nn.InitRecurrentCell(HiddenSize, HiddenSize, rng),
		initLayer(nn.NewLayer(HiddenSize, MarkerWidth, nn.ActivationSoftSign, false), rng),
	)
	t := &TagTask{}
	for w := 0; w < workers; w++ {
		s := base
		if w > 0 {
			s = nn.NewSeqToSeq(RuneWidth, HiddenSize, MarkerWidth, nn.ActivationSoftSign)
			nn.CopyWeights(s, base)
		}
		tw := &tagWorker{
			model:  nn.NewTrainableSeqToSeq(s),
			cache:  nn.NewSeqToSeqCache(s, MaxWordLength, TagLength),
			inputs: EncodeWord(make([]rune, MaxWordLength)),
		}
		for i := 0; i < TagLength; i++ {
			tw.targets = append(tw.targets, nn.NewVector(MarkerWidth))
			tw.errs = append(tw.errs, nn.NewVector(MarkerWidth))
		}
		t.workers = append(t.workers, tw)
	}
	return t
}

// Tags returns the expected output of TagTask for lang
func Tags(lang Language) []Language {
	tags := make([]Language, TagLength)
	for i := range tags {
		tags[i] = lang
	}
	tags[TagLength-1] = EndMarker
	return tags
}

// Models returns the trainable copies, one per worker
func (t *TagTask) Models() []trainer.Model {
	out := make([]trainer.Model, len(t.workers))
	for i, w := range t.workers {
		out[i] = w.model
	}
	return out
}

// Sample studies one random word on worker's copy and returns the loss summed over the output sequence
func (t *TagTask) Sample(worker int, rng *rand.Rand) float32 {
	w := t.workers[worker]
	lang := RandomLanguage(rng)
	word := Word(rng, lang, 1, MaxWordLength)
	for i, r := range word {
		EncodeRune(w.inputs[i], r)
	}
	for i, tag := range Tags(lang) {
		tag.Marker(w.targets[i])
	}

	outs := w.model.Ready(w.inputs[:len(word)], nil, TagLength, w.cache)
	loss := float32(0)
	for i, out := range outs {
		loss += nn.SquaredError(w.errs[i], out, w.targets[i])
	}
	w.model.Study(w.errs, w.cache)
	return loss
}

// Model returns the trained sequence model
func (t *TagTask) Model() *nn.SeqToSeq {
	return t.workers[0].model.Model()
}

// Tag decodes the output sequence for a non-empty word
func (t *TagTask) Tag(word []rune) []Language {
	outs := t.Model().Calc(EncodeWord(word), nil, TagLength)
	tags := make([]Language, len(outs))
	for i, out := range outs {
		tags[i] = DecodeMarker(out)
	}
	return tags
}
