package gif

// Quantizer is a competitive-learning color quantizer: a fixed network of
// 256 color prototypes trained on a sample of the image, after Anthony
// Dekker's NeuQuant algorithm.
//
// Channels are kept in input order; "green" below means the second
// channel, which the lookup index is sorted by.
type Quantizer struct {
	pixels []byte // packed 3-byte pixels
	sample int

	network  [netSize][4]int // channels 0..2 plus the original index
	netIndex [256]int        // lookup by second channel
	bias     [netSize]int
	freq     [netSize]int
	radPower [initRad]int
}

const (
	netSize = 256 // number of colors

	// Primes near 500 used to step through the image so that samples are
	// spread over it rather than taken in scan order.
	prime1 = 499
	prime2 = 491
	prime3 = 487
	prime4 = 503

	minPictureBytes = 3 * prime4 // below this every pixel is sampled

	maxNetPos    = netSize - 1
	netBiasShift = 4   // bias for color values
	nCycles      = 100 // learning cycles

	intBiasShift = 16 // bias for fractions
	intBias      = 1 << intBiasShift
	gammaShift   = 10
	betaShift    = 10
	beta         = intBias >> betaShift // 1/1024
	betaGamma    = intBias << (gammaShift - betaShift)

	initRad         = netSize >> 3 // initial neighbourhood radius in neurons
	radiusBiasShift = 6
	radiusBias      = 1 << radiusBiasShift
	initRadius      = initRad * radiusBias
	radiusDec       = 30 // radius shrinks by 1/30 per cycle

	alphaBiasShift = 10
	initAlpha      = 1 << alphaBiasShift

	radBiasShift   = 8
	radBias        = 1 << radBiasShift
	alphaRadBShift = alphaBiasShift + radBiasShift
	alphaRadBias   = 1 << alphaRadBShift
)

// Sample factor bounds. 1 samples every pixel; 30 is fastest.
const (
	MinSample     = 1
	MaxSample     = 30
	DefaultSample = 10
)

// NewQuantizer prepares a quantizer for packed 3-byte pixels. sample is
// clamped to [MinSample, MaxSample].
func NewQuantizer(pixels []byte, sample int) *Quantizer {
	q := &Quantizer{
		pixels: pixels[:len(pixels)/3*3],
		sample: min(max(sample, MinSample), MaxSample),
	}
	for i := range q.network {
		v := (i << (netBiasShift + 8)) / netSize
		q.network[i] = [4]int{v, v, v, 0}
		q.freq[i] = intBias / netSize
	}
	return q
}

// Process trains the network, builds the lookup index and returns the
// palette as 256 packed 3-byte colors in network order.
func (q *Quantizer) Process() []byte {
	q.learn()
	q.unbias()
	q.buildIndex()
	return q.colorMap()
}

// Map returns the palette index nearest to the color (c0, c1, c2).
// Process must have been called.
func (q *Quantizer) Map(c0, c1, c2 byte) int {
	return q.search(int(c0), int(c1), int(c2))
}

// learn runs the fixed number of learning cycles over the sampled pixels.
// Learning rate and radius decay geometrically after each cycle.
func (q *Quantizer) learn() {
	length := len(q.pixels)
	sample := q.sample
	if length < minPictureBytes {
		sample = 1
	}
	alphaDec := 30 + (sample-1)/3
	samplePixels := length / (3 * sample)
	delta := max(samplePixels/nCycles, 1)
	alpha := initAlpha
	radius := initRadius

	rad := radius >> radiusBiasShift
	if rad <= 1 {
		rad = 0
	}
	q.setRadPower(rad, alpha)

	var step int
	switch {
	case length < minPictureBytes:
		step = 3
	case length%prime1 != 0:
		step = 3 * prime1
	case length%prime2 != 0:
		step = 3 * prime2
	case length%prime3 != 0:
		step = 3 * prime3
	default:
		step = 3 * prime4
	}

	pix := 0
	for i := 0; i < samplePixels; {
		c0 := int(q.pixels[pix]) << netBiasShift
		c1 := int(q.pixels[pix+1]) << netBiasShift
		c2 := int(q.pixels[pix+2]) << netBiasShift
		j := q.contest(c0, c1, c2)

		q.alterSingle(alpha, j, c0, c1, c2)
		if rad != 0 {
			q.alterNeighbours(rad, j, c0, c1, c2)
		}

		pix += step
		if pix >= length {
			pix -= length
		}

		i++
		if i%delta == 0 {
			alpha -= alpha / alphaDec
			radius -= radius / radiusDec
			rad = radius >> radiusBiasShift
			if rad <= 1 {
				rad = 0
			}
			q.setRadPower(rad, alpha)
		}
	}
}

func (q *Quantizer) setRadPower(rad, alpha int) {
	for i := 0; i < rad; i++ {
		q.radPower[i] = alpha * (((rad*rad - i*i) * radBias) / (rad * rad))
	}
}

// contest finds the closest neuron, updates the frequency and bias of all
// neurons, and returns the neuron with the best biased distance. The bias
// pulls rarely winning neurons into use.
func (q *Quantizer) contest(c0, c1, c2 int) int {
	bestDist := int(^uint32(0) >> 1)
	bestBiasDist := bestDist
	bestPos, bestBiasPos := -1, -1

	for i := range q.network {
		n := &q.network[i]
		dist := abs(n[0]-c0) + abs(n[1]-c1) + abs(n[2]-c2)
		if dist < bestDist {
			bestDist, bestPos = dist, i
		}
		biasDist := dist - (q.bias[i] >> (intBiasShift - netBiasShift))
		if biasDist < bestBiasDist {
			bestBiasDist, bestBiasPos = biasDist, i
		}
		betaFreq := q.freq[i] >> betaShift
		q.freq[i] -= betaFreq
		q.bias[i] += betaFreq << gammaShift
	}
	q.freq[bestPos] += beta
	q.bias[bestPos] -= betaGamma
	return bestBiasPos
}

// alterSingle moves neuron i towards the color by factor alpha.
func (q *Quantizer) alterSingle(alpha, i, c0, c1, c2 int) {
	n := &q.network[i]
	n[0] -= alpha * (n[0] - c0) / initAlpha
	n[1] -= alpha * (n[1] - c1) / initAlpha
	n[2] -= alpha * (n[2] - c2) / initAlpha
}

// alterNeighbours moves the neurons within rad of i towards the color,
// weighted by radPower.
func (q *Quantizer) alterNeighbours(rad, i, c0, c1, c2 int) {
	lo := max(i-rad, -1)
	hi := min(i+rad, netSize)

	j, k, m := i+1, i-1, 1
	for j < hi || k > lo {
		a := q.radPower[m]
		m++
		if j < hi {
			n := &q.network[j]
			n[0] -= a * (n[0] - c0) / alphaRadBias
			n[1] -= a * (n[1] - c1) / alphaRadBias
			n[2] -= a * (n[2] - c2) / alphaRadBias
			j++
		}
		if k > lo {
			n := &q.network[k]
			n[0] -= a * (n[0] - c0) / alphaRadBias
			n[1] -= a * (n[1] - c1) / alphaRadBias
			n[2] -= a * (n[2] - c2) / alphaRadBias
			k--
		}
	}
}

// unbias scales the network back to 8-bit channels and records each
// neuron's index before sorting.
func (q *Quantizer) unbias() {
	for i := range q.network {
		n := &q.network[i]
		for c := 0; c < 3; c++ {
			n[c] = min(max(n[c]>>netBiasShift, 0), 255)
		}
		n[3] = i
	}
}

// buildIndex sorts the network by the second channel and records, for
// every value of that channel, where the search should start.
func (q *Quantizer) buildIndex() {
	previous, start := 0, 0
	for i := range q.network {
		smallPos, smallVal := i, q.network[i][1]
		for j := i + 1; j < netSize; j++ {
			if q.network[j][1] < smallVal {
				smallPos, smallVal = j, q.network[j][1]
			}
		}
		if smallPos != i {
			q.network[i], q.network[smallPos] = q.network[smallPos], q.network[i]
		}
		if smallVal != previous {
			q.netIndex[previous] = (start + i) >> 1
			for j := previous + 1; j < smallVal; j++ {
				q.netIndex[j] = i
			}
			previous, start = smallVal, i
		}
	}
	q.netIndex[previous] = (start + maxNetPos) >> 1
	for j := previous + 1; j < 256; j++ {
		q.netIndex[j] = maxNetPos
	}
}

// search walks outwards from the index entry of c1 in both directions and
// stops each direction once the second-channel distance alone exceeds the
// best full distance found.
func (q *Quantizer) search(c0, c1, c2 int) int {
	bestDist := 1000 // larger than any possible distance (3*255)
	best := -1
	i := q.netIndex[c1]
	j := i - 1

	for i < netSize || j >= 0 {
		if i < netSize {
			n := &q.network[i]
			dist := n[1] - c1
			if dist >= bestDist {
				i = netSize
			} else {
				i++
				dist = abs(dist) + abs(n[0]-c0)
				if dist < bestDist {
					dist += abs(n[2] - c2)
					if dist < bestDist {
						bestDist, best = dist, n[3]
					}
				}
			}
		}
		if j >= 0 {
			n := &q.network[j]
			dist := c1 - n[1]
			if dist >= bestDist {
				j = -1
			} else {
				j--
				dist = abs(dist) + abs(n[0]-c0)
				if dist < bestDist {
					dist += abs(n[2] - c2)
					if dist < bestDist {
						bestDist, best = dist, n[3]
					}
				}
			}
		}
	}
	return best
}

// colorMap returns the palette ordered by the neurons' original index,
// which is what search returns.
func (q *Quantizer) colorMap() []byte {
	var index [netSize]int
	for i := range q.network {
		index[q.network[i][3]] = i
	}
	palette := make([]byte, 0, 3*netSize)
	for i := 0; i < netSize; i++ {
		n := q.network[index[i]]
		palette = append(palette, byte(n[0]), byte(n[1]), byte(n[2])) //nolint:gosec // clamped to [0, 255] in unbias
	}
	return palette
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
